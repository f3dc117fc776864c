package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RecordSaleInput is a payment taken at the counter
type RecordSaleInput struct {
	SessionID int32
	Amount    decimal.Decimal
	Channel   domain.PaymentChannel
	Reference *string
	SoldAt    *time.Time
}

// RecordExpenseInput is cash paid out of the drawer
type RecordExpenseInput struct {
	SessionID   int32
	Amount      decimal.Decimal
	Description string
	SpentAt     *time.Time
}

// LedgerService records sales and drawer expenses into an open session
type LedgerService struct {
	sessionRepo    domain.CashSessionRepository
	saleRepo       domain.SaleRepository
	expenseRepo    domain.ExpenseRepository
	eventPublisher websocket.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(sessionRepo domain.CashSessionRepository, saleRepo domain.SaleRepository, expenseRepo domain.ExpenseRepository) *LedgerService {
	return &LedgerService{
		sessionRepo: sessionRepo,
		saleRepo:    saleRepo,
		expenseRepo: expenseRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *LedgerService) publishEvent(branchID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(branchID, event)
	}
}

// openSession loads a session and ensures it still accepts entries
func (s *LedgerService) openSession(ctx context.Context, branchID, sessionID int32) (*domain.CashSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, branchID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, domain.ErrNoOpenSession
	}
	return session, nil
}

// RecordSale records a payment against an open session
func (s *LedgerService) RecordSale(ctx context.Context, branchID int32, input RecordSaleInput) (*domain.Sale, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !input.Channel.IsValid() {
		return nil, domain.ErrInvalidChannel
	}
	if input.Reference != nil {
		ref := strings.TrimSpace(*input.Reference)
		if len(ref) > domain.MaxDescriptionLength {
			return nil, domain.ErrDescriptionTooLong
		}
		if ref == "" {
			input.Reference = nil
		} else {
			input.Reference = &ref
		}
	}

	if _, err := s.openSession(ctx, branchID, input.SessionID); err != nil {
		return nil, err
	}

	soldAt := time.Now().UTC()
	if input.SoldAt != nil {
		soldAt = input.SoldAt.UTC()
	}

	sale, err := s.saleRepo.Create(ctx, &domain.Sale{
		BranchID:  branchID,
		SessionID: input.SessionID,
		Amount:    input.Amount,
		Channel:   input.Channel,
		Reference: input.Reference,
		SoldAt:    soldAt,
	})
	if err != nil {
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", input.SessionID).Msg("Failed to record sale")
		return nil, err
	}

	s.publishEvent(branchID, websocket.SaleRecorded(sale))
	return sale, nil
}

// RecordExpense records a drawer payout against an open session
func (s *LedgerService) RecordExpense(ctx context.Context, branchID int32, input RecordExpenseInput) (*domain.Expense, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	if _, err := s.openSession(ctx, branchID, input.SessionID); err != nil {
		return nil, err
	}

	spentAt := time.Now().UTC()
	if input.SpentAt != nil {
		spentAt = input.SpentAt.UTC()
	}

	expense, err := s.expenseRepo.Create(ctx, &domain.Expense{
		BranchID:    branchID,
		SessionID:   input.SessionID,
		Amount:      input.Amount,
		Description: description,
		SpentAt:     spentAt,
	})
	if err != nil {
		log.Error().Err(err).Int32("branch_id", branchID).Int32("session_id", input.SessionID).Msg("Failed to record expense")
		return nil, err
	}

	s.publishEvent(branchID, websocket.ExpenseRecorded(expense))
	return expense, nil
}

// ListSessionSales returns the sales of a session
func (s *LedgerService) ListSessionSales(ctx context.Context, branchID, sessionID int32) ([]*domain.Sale, error) {
	if _, err := s.sessionRepo.GetByID(ctx, branchID, sessionID); err != nil {
		return nil, err
	}
	return s.saleRepo.ListBySession(ctx, branchID, sessionID)
}

// ListSessionExpenses returns the expenses of a session
func (s *LedgerService) ListSessionExpenses(ctx context.Context, branchID, sessionID int32) ([]*domain.Expense, error) {
	if _, err := s.sessionRepo.GetByID(ctx, branchID, sessionID); err != nil {
		return nil, err
	}
	return s.expenseRepo.ListBySession(ctx, branchID, sessionID)
}
