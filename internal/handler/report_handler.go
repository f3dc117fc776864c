package handler

import (
	"net/http"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReportHandler handles sales report HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// DailyReportResponse represents a day's sales totals in API responses
type DailyReportResponse struct {
	Date             string `json:"date"`
	TotalCash        string `json:"totalCash"`
	TotalCard        string `json:"totalCard"`
	TotalGcash       string `json:"totalGcash"`
	TotalBank        string `json:"totalBank"`
	TotalExpenses    string `json:"totalExpenses"`
	GrossSales       string `json:"grossSales"`
	TransactionCount int    `json:"transactionCount"`
	ExpenseCount     int    `json:"expenseCount"`
}

// GetDailyReport handles GET /api/v1/reports/daily
// @Summary Daily sales report
// @Description Sales per payment channel and drawer expenses for one calendar day in the branch timezone
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} DailyReportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /reports/daily [get]
func (h *ReportHandler) GetDailyReport(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	date, err := util.ParseDate(c.QueryParam("date"), h.reportService.Location())
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	report, err := h.reportService.GetDailySalesReport(c.Request().Context(), branchID, date)
	if err != nil {
		log.Error().Err(err).Int32("branch_id", branchID).Str("date", date.Format(util.DateLayout)).Msg("Failed to get daily report")
		return NewInternalError(c, "Failed to get daily report")
	}

	return c.JSON(http.StatusOK, toDailyReportResponse(report))
}

func toDailyReportResponse(r *domain.DailySalesReport) DailyReportResponse {
	return DailyReportResponse{
		Date:             r.Date.Format(util.DateLayout),
		TotalCash:        r.TotalCash.StringFixed(2),
		TotalCard:        r.TotalCard.StringFixed(2),
		TotalGcash:       r.TotalGcash.StringFixed(2),
		TotalBank:        r.TotalBank.StringFixed(2),
		TotalExpenses:    r.TotalExpenses.StringFixed(2),
		GrossSales:       r.GrossSales().StringFixed(2),
		TransactionCount: r.TransactionCount,
		ExpenseCount:     r.ExpenseCount,
	}
}
