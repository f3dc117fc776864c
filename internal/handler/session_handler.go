package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Closing messages shown to the operator
const (
	MessageClosedBalanced     = "Session closed and balanced"
	MessageClosedWithVariance = "Session closed with variance"
)

// SessionHandler handles cash session HTTP requests
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// OpenSessionRequest represents the open session request body.
// Omit openingBalance to carry over the last counted cash.
type OpenSessionRequest struct {
	OpeningBalance *string `json:"openingBalance,omitempty"`
}

// ReconcileRequest carries the operator's in-progress counts; blanks count as zero
type ReconcileRequest struct {
	ActualCash    string `json:"actualCash"`
	ActualDigital string `json:"actualDigital"`
}

// CloseSessionRequest represents the close session request body
type CloseSessionRequest struct {
	ActualCash    string  `json:"actualCash" validate:"required"`
	ActualDigital string  `json:"actualDigital" validate:"required"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// SessionResponse represents a cash session in API responses
type SessionResponse struct {
	ID              int32   `json:"id"`
	BranchID        int32   `json:"branchId"`
	OperatorID      string  `json:"operatorId"`
	OpeningBalance  string  `json:"openingBalance"`
	Status          string  `json:"status"`
	OpenedAt        string  `json:"openedAt"`
	ClosedAt        *string `json:"closedAt,omitempty"`
	ActualCash      *string `json:"actualCash,omitempty"`
	ActualDigital   *string `json:"actualDigital,omitempty"`
	CashVariance    *string `json:"cashVariance,omitempty"`
	DigitalVariance *string `json:"digitalVariance,omitempty"`
	IsBalanced      *bool   `json:"isBalanced,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// ClosingResultResponse is a reconciliation outcome with amounts as fixed-point strings
type ClosingResultResponse struct {
	ExpectedCash      string `json:"expectedCash"`
	ExpectedDigital   string `json:"expectedDigital"`
	CashVariance      string `json:"cashVariance"`
	DigitalVariance   string `json:"digitalVariance"`
	IsCashBalanced    bool   `json:"isCashBalanced"`
	IsDigitalBalanced bool   `json:"isDigitalBalanced"`
	IsFullyBalanced   bool   `json:"isFullyBalanced"`
	NetIncome         string `json:"netIncome"`
	TotalExpected     string `json:"totalExpected"`
	TotalActual       string `json:"totalActual"`
	TotalVariance     string `json:"totalVariance"`
}

// ReconcileResponse is the live preview shown while the operator counts
type ReconcileResponse struct {
	SessionID         int32                 `json:"sessionId"`
	Report            DailyReportResponse   `json:"report"`
	ReportUnavailable bool                  `json:"reportUnavailable"`
	Result            ClosingResultResponse `json:"result"`
}

// CloseSessionResponse is returned after a successful close
type CloseSessionResponse struct {
	Success         bool   `json:"success"`
	IsBalanced      bool   `json:"isBalanced"`
	CashVariance    string `json:"cashVariance"`
	DigitalVariance string `json:"digitalVariance"`
	Message         string `json:"message"`
}

// ArchiveResponse holds a short-lived link to an archived closing
type ArchiveResponse struct {
	URL string `json:"url"`
}

// OpenSession handles POST /api/v1/sessions
// @Summary Open a cash session
// @Description Start a drawer session for the operator's branch. Without openingBalance the last counted cash is carried over.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenSessionRequest false "Opening balance"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /sessions [post]
func (h *SessionHandler) OpenSession(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	var req OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var opening *decimal.Decimal
	if req.OpeningBalance != nil && strings.TrimSpace(*req.OpeningBalance) != "" {
		amount, ok := util.ParseRequiredAmount(*req.OpeningBalance)
		if !ok {
			return NewValidationError(c, "Invalid opening balance", []ValidationError{
				{Field: "openingBalance", Message: "Must be a valid decimal number"},
			})
		}
		opening = &amount
	}

	session, err := h.sessionService.Open(c.Request().Context(), branchID, middleware.GetOperatorID(c), opening)
	if err != nil {
		if errors.Is(err, domain.ErrSessionAlreadyOpen) {
			return NewConflictError(c, "Branch already has an open session")
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "openingBalance", Message: "Must not be negative"},
			})
		}
		log.Error().Err(err).Int32("branch_id", branchID).Msg("Failed to open session")
		return NewInternalError(c, "Failed to open session")
	}

	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

// GetCurrentSession handles GET /api/v1/sessions/current
// @Summary Get the open session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/current [get]
func (h *SessionHandler) GetCurrentSession(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	session, err := h.sessionService.GetCurrent(c.Request().Context(), branchID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "No open session")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Msg("Failed to get current session")
		return NewInternalError(c, "Failed to get current session")
	}

	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// GetSessions handles GET /api/v1/sessions
// @Summary List sessions
// @Description Session history for the branch, newest first
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} SessionResponse
// @Failure 400 {object} ProblemDetails
// @Router /sessions [get]
func (h *SessionHandler) GetSessions(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	limit, err := intQueryParam(c, "limit")
	if err != nil {
		return NewValidationError(c, "Invalid limit", nil)
	}
	offset, err := intQueryParam(c, "offset")
	if err != nil {
		return NewValidationError(c, "Invalid offset", nil)
	}

	sessions, err := h.sessionService.List(c.Request().Context(), branchID, limit, offset)
	if err != nil {
		log.Error().Err(err).Int32("branch_id", branchID).Msg("Failed to list sessions")
		return NewInternalError(c, "Failed to list sessions")
	}

	response := make([]SessionResponse, len(sessions))
	for i, session := range sessions {
		response[i] = toSessionResponse(session)
	}
	return c.JSON(http.StatusOK, response)
}

// GetSession handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	session, err := h.sessionService.Get(c.Request().Context(), branchID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "Session not found")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to get session")
		return NewInternalError(c, "Failed to get session")
	}

	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Reconcile handles POST /api/v1/sessions/:id/reconcile
// @Summary Preview a closing
// @Description Reconcile the current counts against the day's sales without closing. Blank or non-numeric counts are treated as zero.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body ReconcileRequest true "Current counts"
// @Success 200 {object} ReconcileResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/{id}/reconcile [post]
func (h *SessionHandler) Reconcile(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	preview, err := h.sessionService.Preview(c.Request().Context(), branchID, sessionID, req.ActualCash, req.ActualDigital)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "Session not found")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to reconcile session")
		return NewInternalError(c, "Failed to reconcile session")
	}

	return c.JSON(http.StatusOK, ReconcileResponse{
		SessionID:         preview.SessionID,
		Report:            toDailyReportResponse(preview.Report),
		ReportUnavailable: preview.ReportUnavailable,
		Result:            toClosingResultResponse(preview.Result),
	})
}

// CloseSession handles POST /api/v1/sessions/:id/close
// @Summary Close a session
// @Description Persist the final counts and variances. Both counts must be present and numeric.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body CloseSessionRequest true "Final counts"
// @Success 200 {object} CloseSessionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /sessions/{id}/close [post]
func (h *SessionHandler) CloseSession(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	var req CloseSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, "Missing input", toValidationErrors(err))
	}

	var fieldErrs []ValidationError
	actualCash, ok := util.ParseRequiredAmount(req.ActualCash)
	if !ok {
		fieldErrs = append(fieldErrs, ValidationError{Field: "actualCash", Message: "Must be a number"})
	}
	actualDigital, ok := util.ParseRequiredAmount(req.ActualDigital)
	if !ok {
		fieldErrs = append(fieldErrs, ValidationError{Field: "actualDigital", Message: "Must be a number"})
	}
	if len(fieldErrs) > 0 {
		return NewValidationError(c, "Missing input", fieldErrs)
	}

	var notes *string
	if req.Notes != nil {
		if trimmed := strings.TrimSpace(*req.Notes); trimmed != "" {
			notes = &trimmed
		}
	}

	result, err := h.sessionService.Close(c.Request().Context(), branchID, sessionID, actualCash, actualDigital, notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			return NewNotFoundError(c, "Session not found")
		case errors.Is(err, domain.ErrSessionClosed):
			return NewConflictError(c, "Session already closed")
		case errors.Is(err, domain.ErrSessionBusy):
			return NewConflictError(c, "Session is being closed by another request")
		case errors.Is(err, domain.ErrInvalidInput):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "notes", Message: "Must be 1000 characters or less"},
			})
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to close session")
		return NewInternalError(c, err.Error())
	}

	message := MessageClosedWithVariance
	if result.IsBalanced {
		message = MessageClosedBalanced
	}

	return c.JSON(http.StatusOK, CloseSessionResponse{
		Success:         result.Success,
		IsBalanced:      result.IsBalanced,
		CashVariance:    result.CashVariance.StringFixed(2),
		DigitalVariance: result.DigitalVariance.StringFixed(2),
		Message:         message,
	})
}

// GetArchive handles GET /api/v1/sessions/:id/archive
// @Summary Download link for a closed session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} ArchiveResponse
// @Failure 404 {object} ProblemDetails
// @Router /sessions/{id}/archive [get]
func (h *SessionHandler) GetArchive(c echo.Context) error {
	branchID := middleware.GetBranchID(c)
	if branchID == 0 {
		return branchRequired(c)
	}

	sessionID, err := sessionIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid session ID", nil)
	}

	url, err := h.sessionService.ArchiveURL(c.Request().Context(), branchID, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "Session not found")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return NewNotFoundError(c, "No archived closing for this session")
		}
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to get archive link")
		return NewInternalError(c, "Failed to get archive link")
	}

	return c.JSON(http.StatusOK, ArchiveResponse{URL: url})
}

func sessionIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return int32(id), nil
}

// intQueryParam returns 0 for an absent parameter
func intQueryParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func toSessionResponse(s *domain.CashSession) SessionResponse {
	resp := SessionResponse{
		ID:              s.ID,
		BranchID:        s.BranchID,
		OperatorID:      s.OperatorID.String(),
		OpeningBalance:  s.OpeningBalance.StringFixed(2),
		Status:          string(s.Status),
		OpenedAt:        s.OpenedAt.Format(time.RFC3339),
		ActualCash:      fixedPtr(s.ActualCash),
		ActualDigital:   fixedPtr(s.ActualDigital),
		CashVariance:    fixedPtr(s.CashVariance),
		DigitalVariance: fixedPtr(s.DigitalVariance),
		IsBalanced:      s.IsBalanced,
		Notes:           s.Notes,
	}
	if s.ClosedAt != nil {
		closedAt := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closedAt
	}
	return resp
}

func toClosingResultResponse(r domain.ClosingResult) ClosingResultResponse {
	return ClosingResultResponse{
		ExpectedCash:      r.ExpectedCash.StringFixed(2),
		ExpectedDigital:   r.ExpectedDigital.StringFixed(2),
		CashVariance:      r.CashVariance.StringFixed(2),
		DigitalVariance:   r.DigitalVariance.StringFixed(2),
		IsCashBalanced:    r.IsCashBalanced,
		IsDigitalBalanced: r.IsDigitalBalanced,
		IsFullyBalanced:   r.IsFullyBalanced,
		NetIncome:         r.NetIncome.StringFixed(2),
		TotalExpected:     r.TotalExpected.StringFixed(2),
		TotalActual:       r.TotalActual.StringFixed(2),
		TotalVariance:     r.TotalVariance.StringFixed(2),
	}
}

func fixedPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}
