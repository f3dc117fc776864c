package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentChannel is how a customer paid for a wash
type PaymentChannel string

const (
	PaymentChannelCash  PaymentChannel = "cash"
	PaymentChannelCard  PaymentChannel = "card"
	PaymentChannelGcash PaymentChannel = "gcash"
	PaymentChannelBank  PaymentChannel = "bank"
)

// IsValid reports whether c is a known channel
func (c PaymentChannel) IsValid() bool {
	switch c {
	case PaymentChannelCash, PaymentChannelCard, PaymentChannelGcash, PaymentChannelBank:
		return true
	}
	return false
}

// IsDigital is true for every channel that does not go through the drawer
func (c PaymentChannel) IsDigital() bool {
	return c.IsValid() && c != PaymentChannelCash
}

// Sale is a payment taken at the POS during a cash session
type Sale struct {
	ID        int32           `json:"id"`
	BranchID  int32           `json:"branchId"`
	SessionID int32           `json:"sessionId"`
	Amount    decimal.Decimal `json:"amount"`
	Channel   PaymentChannel  `json:"channel"`
	Reference *string         `json:"reference,omitempty"`
	SoldAt    time.Time       `json:"soldAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Expense is cash paid out of the drawer during a session
type Expense struct {
	ID          int32           `json:"id"`
	BranchID    int32           `json:"branchId"`
	SessionID   int32           `json:"sessionId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SpentAt     time.Time       `json:"spentAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ChannelTotals is a per-channel aggregate of sales
type ChannelTotals struct {
	Channel PaymentChannel
	Total   decimal.Decimal
	Count   int
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) (*Sale, error)
	ListBySession(ctx context.Context, branchID, sessionID int32) ([]*Sale, error)
	SumByChannelAndDateRange(ctx context.Context, branchID int32, start, end time.Time) ([]*ChannelTotals, error)
	SumByChannelAndSession(ctx context.Context, branchID, sessionID int32) ([]*ChannelTotals, error)
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	ListBySession(ctx context.Context, branchID, sessionID int32) ([]*Expense, error)
	SumByDateRange(ctx context.Context, branchID int32, start, end time.Time) (decimal.Decimal, int, error)
	SumBySession(ctx context.Context, branchID, sessionID int32) (decimal.Decimal, int, error)
}
