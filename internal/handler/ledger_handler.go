package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LedgerHandler handles sale and expense HTTP requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RecordSaleRequest represents the record sale request body
type RecordSaleRequest struct {
	Amount    string     `json:"amount" validate:"required"`
	Channel   string     `json:"channel" validate:"required,oneof=cash card gcash bank"`
	Reference *string    `json:"reference,omitempty" validate:"omitempty,max=255"`
	SoldAt    *time.Time `json:"soldAt,omitempty"`
}

// RecordExpenseRequest represents the record expense request body
type RecordExpenseRequest struct {
	Amount      string     `json:"amount" validate:"required"`
	Description string     `json:"description" validate:"required,max=255"`
	SpentAt     *time.Time `json:"spentAt,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID        int32   `json:"id"`
	SessionID int32   `json:"sessionId"`
	Amount    string  `json:"amount"`
	Channel   string  `json:"channel"`
	Reference *string `json:"reference,omitempty"`
	SoldAt    string  `json:"soldAt"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          int32  `json:"id"`
	SessionID   int32  `json:"sessionId"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	SpentAt     string `json:"spentAt"`
}

// RecordSale handles POST /api/v1/sessions/:id/sales
// @Summary Record a sale
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body RecordSaleRequest true "Sale"
// @Success 201 {object} SaleResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /sessions/{id}/sales [post]
func (h *LedgerHandler) RecordSale(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	var req RecordSaleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", toValidationErrors(err))
	}

	amount, ok := util.ParseRequiredAmount(req.Amount)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	sale, err := h.ledgerService.RecordSale(c.Request().Context(), branchID, service.RecordSaleInput{
		SessionID: sessionID,
		Amount:    amount,
		Channel:   domain.PaymentChannel(req.Channel),
		Reference: req.Reference,
		SoldAt:    req.SoldAt,
	})
	if err != nil {
		if handled, respErr := ledgerProblem(c, err); handled {
			return respErr
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to record sale")
		return NewInternalError(c, "Failed to record sale")
	}

	return c.JSON(http.StatusCreated, toSaleResponse(sale))
}

// GetSales handles GET /api/v1/sessions/:id/sales
// @Summary List a session's sales
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {array} SaleResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/{id}/sales [get]
func (h *LedgerHandler) GetSales(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	sales, err := h.ledgerService.ListSessionSales(c.Request().Context(), branchID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "Session not found")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to list sales")
		return NewInternalError(c, "Failed to list sales")
	}

	response := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		response[i] = toSaleResponse(sale)
	}
	return c.JSON(http.StatusOK, response)
}

// RecordExpense handles POST /api/v1/sessions/:id/expenses
// @Summary Record a drawer expense
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body RecordExpenseRequest true "Expense"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /sessions/{id}/expenses [post]
func (h *LedgerHandler) RecordExpense(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	var req RecordExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Validation failed", toValidationErrors(err))
	}

	amount, ok := util.ParseRequiredAmount(req.Amount)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	expense, err := h.ledgerService.RecordExpense(c.Request().Context(), branchID, service.RecordExpenseInput{
		SessionID:   sessionID,
		Amount:      amount,
		Description: req.Description,
		SpentAt:     req.SpentAt,
	})
	if err != nil {
		if handled, respErr := ledgerProblem(c, err); handled {
			return respErr
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to record expense")
		return NewInternalError(c, "Failed to record expense")
	}

	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// GetExpenses handles GET /api/v1/sessions/:id/expenses
// @Summary List a session's expenses
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {array} ExpenseResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/{id}/expenses [get]
func (h *LedgerHandler) GetExpenses(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	expenses, err := h.ledgerService.ListSessionExpenses(c.Request().Context(), branchID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "Session not found")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to list expenses")
		return NewInternalError(c, "Failed to list expenses")
	}

	response := make([]ExpenseResponse, len(expenses))
	for i, expense := range expenses {
		response[i] = toExpenseResponse(expense)
	}
	return c.JSON(http.StatusOK, response)
}

// ledgerProblem writes the problem response for a known ledger error.
// handled is false when err is not a domain error the client can act on.
func ledgerProblem(c echo.Context, err error) (handled bool, respErr error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return true, NewNotFoundError(c, "Session not found")
	case errors.Is(err, domain.ErrNoOpenSession):
		return true, NewConflictError(c, "Session is closed")
	case errors.Is(err, domain.ErrInvalidAmount):
		return true, NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Must be greater than zero"},
		})
	case errors.Is(err, domain.ErrInvalidChannel):
		return true, NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "channel", Message: "Must be one of: cash, card, gcash, bank"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return true, NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return true, NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Is required"},
		})
	}
	return false, nil
}

func toSaleResponse(s *domain.Sale) SaleResponse {
	return SaleResponse{
		ID:        s.ID,
		SessionID: s.SessionID,
		Amount:    s.Amount.StringFixed(2),
		Channel:   string(s.Channel),
		Reference: s.Reference,
		SoldAt:    s.SoldAt.Format(time.RFC3339),
	}
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		SessionID:   e.SessionID,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
		SpentAt:     e.SpentAt.Format(time.RFC3339),
	}
}
