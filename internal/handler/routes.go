package handler

import (
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouteLimits holds the per-operator limiters of the session routes.
// Reconcile previews and closes are budgeted separately so typing a count cannot lock out the close.
type RouteLimits struct {
	Reconcile *middleware.RateLimiter
	Close     *middleware.RateLimiter
}

// RegisterRoutes sets up all API routes. crewHandler, wsHandler and docsHandler may be nil.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limits RouteLimits, sessionHandler *SessionHandler, ledgerHandler *LedgerHandler, reportHandler *ReportHandler, crewHandler *CrewHandler, wsHandler *WebSocketHandler, docsHandler *OpenAPIHandler) {
	// API docs
	if docsHandler != nil {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
		e.GET("/openapi.json", docsHandler.ServeSpec)
	}

	// WebSocket authenticates with ?token= instead of the Authorization header
	if wsHandler != nil {
		e.GET("/ws", wsHandler.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Session and ledger routes (protected)
	sessions := api.Group("/sessions")
	sessions.Use(authMiddleware.Authenticate())
	registerSessionRoutes(sessions, sessionHandler, limits)
	registerLedgerRoutes(sessions, ledgerHandler)

	// Report routes (protected)
	reports := api.Group("/reports")
	reports.Use(authMiddleware.Authenticate())
	reports.GET("/daily", reportHandler.GetDailyReport)

	// Crew routes (protected)
	if crewHandler != nil {
		crew := api.Group("/crew")
		crew.Use(authMiddleware.Authenticate())
		crew.GET("/locations", crewHandler.GetLocations)
		crew.DELETE("/locations/:crewId", crewHandler.DeleteLocation)
	}
}

func registerSessionRoutes(g *echo.Group, h *SessionHandler, limits RouteLimits) {
	g.POST("", h.OpenSession)
	g.GET("", h.GetSessions)
	g.GET("/current", h.GetCurrentSession)
	g.GET("/:id", h.GetSession)
	g.POST("/:id/reconcile", h.Reconcile, middleware.RateLimitMiddleware(limits.Reconcile))
	g.POST("/:id/close", h.CloseSession, middleware.RateLimitMiddleware(limits.Close))
	g.GET("/:id/archive", h.GetArchive)
}

func registerLedgerRoutes(g *echo.Group, h *LedgerHandler) {
	g.POST("/:id/sales", h.RecordSale)
	g.GET("/:id/sales", h.GetSales)
	g.POST("/:id/expenses", h.RecordExpense)
	g.GET("/:id/expenses", h.GetExpenses)
}
