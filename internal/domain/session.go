package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a cash session
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// CashSession is one drawer session on a branch, from opening float to close
type CashSession struct {
	ID              int32            `json:"id"`
	BranchID        int32            `json:"branchId"`
	OperatorID      uuid.UUID        `json:"operatorId"`
	OpeningBalance  decimal.Decimal  `json:"openingBalance"`
	Status          SessionStatus    `json:"status"`
	OpenedAt        time.Time        `json:"openedAt"`
	ClosedAt        *time.Time       `json:"closedAt,omitempty"`
	ActualCash      *decimal.Decimal `json:"actualCash,omitempty"`
	ActualDigital   *decimal.Decimal `json:"actualDigital,omitempty"`
	CashVariance    *decimal.Decimal `json:"cashVariance,omitempty"`
	DigitalVariance *decimal.Decimal `json:"digitalVariance,omitempty"`
	IsBalanced      *bool            `json:"isBalanced,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// IsOpen returns true while the session still accepts sales and expenses
func (s *CashSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// SessionClosing is the record persisted against a session when the operator confirms the close
type SessionClosing struct {
	ActualCash      decimal.Decimal
	ActualDigital   decimal.Decimal
	CashVariance    decimal.Decimal
	DigitalVariance decimal.Decimal
	IsBalanced      bool
	Notes           *string
	ClosedAt        time.Time
}

// CloseSessionResult is returned to the caller after a successful close
type CloseSessionResult struct {
	Success         bool            `json:"success"`
	IsBalanced      bool            `json:"isBalanced"`
	CashVariance    decimal.Decimal `json:"cashVariance"`
	DigitalVariance decimal.Decimal `json:"digitalVariance"`
}

// ClosingPreview is a live reconciliation for a still-open session
type ClosingPreview struct {
	SessionID         int32             `json:"sessionId"`
	Report            *DailySalesReport `json:"report"`
	ReportUnavailable bool              `json:"reportUnavailable"`
	Result            ClosingResult     `json:"result"`
}

// ClosingRecord is the archived snapshot of a completed close
type ClosingRecord struct {
	Session           *CashSession      `json:"session"`
	Report            *DailySalesReport `json:"report"`
	ReportUnavailable bool              `json:"reportUnavailable"`
	Result            ClosingResult     `json:"result"`
}

// CashSessionRepository defines the interface for cash session persistence
type CashSessionRepository interface {
	Create(ctx context.Context, session *CashSession) (*CashSession, error)
	GetByID(ctx context.Context, branchID, id int32) (*CashSession, error)
	GetOpen(ctx context.Context, branchID int32) (*CashSession, error)
	GetLastClosed(ctx context.Context, branchID int32) (*CashSession, error)
	List(ctx context.Context, branchID int32, limit, offset int) ([]*CashSession, error)
	Close(ctx context.Context, branchID, id int32, closing *SessionClosing) (*CashSession, error)
}

// SessionLocker serializes close attempts on the same session
type SessionLocker interface {
	// Lock returns ErrSessionBusy when another holder has the lock
	Lock(ctx context.Context, sessionID int32) (unlock func(), err error)
}

// ClosingArchive stores completed closings outside the primary database
type ClosingArchive interface {
	Store(ctx context.Context, branchID int32, record *ClosingRecord) (string, error)
	// URL returns a short-lived download link for an archived closing
	URL(ctx context.Context, branchID, sessionID int32) (string, error)
}
