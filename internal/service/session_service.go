package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/util"
	"github.com/dafibh/washpos/washpos-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// DefaultSessionPageSize is used when a caller asks for session history without a limit
	DefaultSessionPageSize = 20
	// MaxSessionPageSize caps a single history page
	MaxSessionPageSize = 100
)

// SessionService runs the cash drawer lifecycle: open, live reconcile, close
type SessionService struct {
	sessionRepo    domain.CashSessionRepository
	reportService  *ReportService
	locker         domain.SessionLocker
	archive        domain.ClosingArchive
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewSessionService creates a new SessionService with a no-op locker and archive
func NewSessionService(sessionRepo domain.CashSessionRepository, reportService *ReportService) *SessionService {
	return &SessionService{
		sessionRepo:   sessionRepo,
		reportService: reportService,
		locker:        NoOpSessionLocker{},
		archive:       NoOpClosingArchive{},
		now:           time.Now,
	}
}

// SetLocker sets the lock used to serialize closes of the same session
func (s *SessionService) SetLocker(locker domain.SessionLocker) {
	if locker != nil {
		s.locker = locker
	}
}

// SetArchive sets where completed closings are archived
func (s *SessionService) SetArchive(archive domain.ClosingArchive) {
	if archive != nil {
		s.archive = archive
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SessionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *SessionService) publishEvent(branchID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(branchID, event)
	}
}

// Open starts a drawer session for a branch. A nil opening balance carries
// over the counted cash of the branch's last closed session.
func (s *SessionService) Open(ctx context.Context, branchID int32, operatorID uuid.UUID, opening *decimal.Decimal) (*domain.CashSession, error) {
	if opening != nil && opening.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.sessionRepo.GetOpen(ctx, branchID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrSessionAlreadyOpen
	}

	balance := decimal.Zero
	if opening != nil {
		balance = *opening
	} else {
		balance, err = s.carriedOverBalance(ctx, branchID)
		if err != nil {
			return nil, err
		}
	}

	session, err := s.sessionRepo.Create(ctx, &domain.CashSession{
		BranchID:       branchID,
		OperatorID:     operatorID,
		OpeningBalance: balance,
		Status:         domain.SessionStatusOpen,
		OpenedAt:       s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("branch_id", branchID).
		Int32("session_id", session.ID).
		Str("opening_balance", balance.StringFixed(2)).
		Msg("Cash session opened")

	s.publishEvent(branchID, websocket.SessionOpened(session))
	return session, nil
}

// carriedOverBalance is the counted cash of the last closed session, or zero
func (s *SessionService) carriedOverBalance(ctx context.Context, branchID int32) (decimal.Decimal, error) {
	last, err := s.sessionRepo.GetLastClosed(ctx, branchID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if last.ActualCash == nil {
		return decimal.Zero, nil
	}
	return *last.ActualCash, nil
}

// GetCurrent returns the branch's open session
func (s *SessionService) GetCurrent(ctx context.Context, branchID int32) (*domain.CashSession, error) {
	return s.sessionRepo.GetOpen(ctx, branchID)
}

// Get returns one session of the branch
func (s *SessionService) Get(ctx context.Context, branchID, sessionID int32) (*domain.CashSession, error) {
	return s.sessionRepo.GetByID(ctx, branchID, sessionID)
}

// List returns session history, newest first
func (s *SessionService) List(ctx context.Context, branchID int32, limit, offset int) ([]*domain.CashSession, error) {
	if limit <= 0 {
		limit = DefaultSessionPageSize
	}
	if limit > MaxSessionPageSize {
		limit = MaxSessionPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessionRepo.List(ctx, branchID, limit, offset)
}

// Preview reconciles the operator's current counts without persisting anything.
// Counts that are empty or not numeric are treated as zero.
func (s *SessionService) Preview(ctx context.Context, branchID, sessionID int32, actualCash, actualDigital string) (*domain.ClosingPreview, error) {
	session, err := s.sessionRepo.GetByID(ctx, branchID, sessionID)
	if err != nil {
		return nil, err
	}

	report, unavailable := s.reportService.GetSessionSalesReportOrZero(ctx, session)
	result := Reconcile(session.OpeningBalance, report, util.ParseAmount(actualCash), util.ParseAmount(actualDigital))

	return &domain.ClosingPreview{
		SessionID:         session.ID,
		Report:            report,
		ReportUnavailable: unavailable,
		Result:            result,
	}, nil
}

// Close reconciles the final counts and persists them against the session.
// Counts are rounded to cents so the stored counts and variances agree.
// A failed write is returned as-is; the caller may retry.
func (s *SessionService) Close(ctx context.Context, branchID, sessionID int32, actualCash, actualDigital decimal.Decimal, notes *string) (*domain.CloseSessionResult, error) {
	if notes != nil && utf8.RuneCountInString(*notes) > domain.MaxNotesLength {
		return nil, domain.ErrInvalidInput
	}
	actualCash = actualCash.Round(util.CurrencyScale)
	actualDigital = actualDigital.Round(util.CurrencyScale)

	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.sessionRepo.GetByID(ctx, branchID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, domain.ErrSessionClosed
	}

	report, unavailable := s.reportService.GetSessionSalesReportOrZero(ctx, session)
	result := Reconcile(session.OpeningBalance, report, actualCash, actualDigital)

	closed, err := s.sessionRepo.Close(ctx, branchID, sessionID, &domain.SessionClosing{
		ActualCash:      actualCash,
		ActualDigital:   actualDigital,
		CashVariance:    result.CashVariance,
		DigitalVariance: result.DigitalVariance,
		IsBalanced:      result.IsFullyBalanced,
		Notes:           notes,
		ClosedAt:        s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist closing: %w", err)
	}

	record := &domain.ClosingRecord{
		Session:           closed,
		Report:            report,
		ReportUnavailable: unavailable,
		Result:            result,
	}
	if key, err := s.archive.Store(ctx, branchID, record); err != nil {
		log.Warn().Err(err).Int32("branch_id", branchID).Int32("session_id", sessionID).Msg("Failed to archive closing")
	} else if key != "" {
		log.Debug().Str("key", key).Int32("session_id", sessionID).Msg("Closing archived")
	}

	log.Info().
		Int32("branch_id", branchID).
		Int32("session_id", sessionID).
		Str("cash_variance", result.CashVariance.StringFixed(2)).
		Str("digital_variance", result.DigitalVariance.StringFixed(2)).
		Bool("balanced", result.IsFullyBalanced).
		Bool("report_unavailable", unavailable).
		Msg("Cash session closed")

	s.publishEvent(branchID, websocket.SessionClosed(record))

	return &domain.CloseSessionResult{
		Success:         true,
		IsBalanced:      result.IsFullyBalanced,
		CashVariance:    result.CashVariance,
		DigitalVariance: result.DigitalVariance,
	}, nil
}

// ArchiveURL returns a download link for a closed session's archived closing
func (s *SessionService) ArchiveURL(ctx context.Context, branchID, sessionID int32) (string, error) {
	session, err := s.sessionRepo.GetByID(ctx, branchID, sessionID)
	if err != nil {
		return "", err
	}
	if session.IsOpen() {
		return "", domain.ErrNotFound
	}
	return s.archive.URL(ctx, branchID, sessionID)
}

// NoOpSessionLocker never contends; used when Redis is not configured
type NoOpSessionLocker struct{}

// Lock always succeeds
func (NoOpSessionLocker) Lock(ctx context.Context, sessionID int32) (func(), error) {
	return func() {}, nil
}

// NoOpClosingArchive discards records; used when archive storage is not configured
type NoOpClosingArchive struct{}

// Store does nothing
func (NoOpClosingArchive) Store(ctx context.Context, branchID int32, record *domain.ClosingRecord) (string, error) {
	return "", nil
}

// URL reports that nothing is archived
func (NoOpClosingArchive) URL(ctx context.Context, branchID, sessionID int32) (string, error) {
	return "", domain.ErrNotFound
}
