package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, branch_id, operator_id, opening_balance, status, opened_at, closed_at,
	actual_cash, actual_digital, cash_variance, digital_variance, is_balanced, notes, created_at, updated_at`

// CashSessionRepository implements domain.CashSessionRepository using PostgreSQL
type CashSessionRepository struct {
	pool *pgxpool.Pool
}

// NewCashSessionRepository creates a new CashSessionRepository
func NewCashSessionRepository(pool *pgxpool.Pool) *CashSessionRepository {
	return &CashSessionRepository{pool: pool}
}

// Create inserts a new open session
func (r *CashSessionRepository) Create(ctx context.Context, session *domain.CashSession) (*domain.CashSession, error) {
	opening, err := decimalToPgNumeric(session.OpeningBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid opening balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO cash_sessions (branch_id, operator_id, opening_balance, status, opened_at)
		VALUES ($1, $2, $3, 'open', $4)
		RETURNING `+sessionColumns,
		session.BranchID,
		pgtype.UUID{Bytes: session.OperatorID, Valid: true},
		opening,
		session.OpenedAt,
	)
	created, err := scanSession(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSessionAlreadyOpen
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a session by its ID within a branch
func (r *CashSessionRepository) GetByID(ctx context.Context, branchID, id int32) (*domain.CashSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE branch_id = $1 AND id = $2`, branchID, id)
	return scanSessionOrNotFound(row)
}

// GetOpen retrieves the branch's open session
func (r *CashSessionRepository) GetOpen(ctx context.Context, branchID int32) (*domain.CashSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE branch_id = $1 AND status = 'open'`, branchID)
	return scanSessionOrNotFound(row)
}

// GetLastClosed retrieves the most recently closed session of a branch
func (r *CashSessionRepository) GetLastClosed(ctx context.Context, branchID int32) (*domain.CashSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE branch_id = $1 AND status = 'closed'
		ORDER BY closed_at DESC
		LIMIT 1`, branchID)
	return scanSessionOrNotFound(row)
}

// List returns a page of the branch's sessions, newest first
func (r *CashSessionRepository) List(ctx context.Context, branchID int32, limit, offset int) ([]*domain.CashSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM cash_sessions
		WHERE branch_id = $1
		ORDER BY opened_at DESC, id DESC
		LIMIT $2 OFFSET $3`, branchID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.CashSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

// Close writes the closing figures. Only an open session is updated, so a
// second close of the same session reports ErrSessionClosed.
func (r *CashSessionRepository) Close(ctx context.Context, branchID, id int32, closing *domain.SessionClosing) (*domain.CashSession, error) {
	actualCash, err := decimalToPgNumeric(closing.ActualCash)
	if err != nil {
		return nil, fmt.Errorf("invalid actual cash: %w", err)
	}
	actualDigital, err := decimalToPgNumeric(closing.ActualDigital)
	if err != nil {
		return nil, fmt.Errorf("invalid actual digital: %w", err)
	}
	cashVariance, err := decimalToPgNumeric(closing.CashVariance)
	if err != nil {
		return nil, fmt.Errorf("invalid cash variance: %w", err)
	}
	digitalVariance, err := decimalToPgNumeric(closing.DigitalVariance)
	if err != nil {
		return nil, fmt.Errorf("invalid digital variance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE cash_sessions
		SET status = 'closed',
			closed_at = $3,
			actual_cash = $4,
			actual_digital = $5,
			cash_variance = $6,
			digital_variance = $7,
			is_balanced = $8,
			notes = $9,
			updated_at = NOW()
		WHERE branch_id = $1 AND id = $2 AND status = 'open'
		RETURNING `+sessionColumns,
		branchID, id,
		closing.ClosedAt,
		actualCash,
		actualDigital,
		cashVariance,
		digitalVariance,
		closing.IsBalanced,
		ptrToText(closing.Notes),
	)
	closed, err := scanSession(row)
	if err == nil {
		return closed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// nothing updated: either missing or already closed
	if _, getErr := r.GetByID(ctx, branchID, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrSessionClosed
}

func scanSessionOrNotFound(row pgx.Row) (*domain.CashSession, error) {
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func scanSession(row pgx.Row) (*domain.CashSession, error) {
	var (
		s               domain.CashSession
		operatorID      pgtype.UUID
		opening         pgtype.Numeric
		status          string
		closedAt        pgtype.Timestamptz
		actualCash      pgtype.Numeric
		actualDigital   pgtype.Numeric
		cashVariance    pgtype.Numeric
		digitalVariance pgtype.Numeric
		isBalanced      pgtype.Bool
		notes           pgtype.Text
	)

	err := row.Scan(
		&s.ID,
		&s.BranchID,
		&operatorID,
		&opening,
		&status,
		&s.OpenedAt,
		&closedAt,
		&actualCash,
		&actualDigital,
		&cashVariance,
		&digitalVariance,
		&isBalanced,
		&notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.OperatorID = uuid.UUID(operatorID.Bytes)
	s.OpeningBalance = pgNumericToDecimal(opening)
	s.Status = domain.SessionStatus(status)
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	s.ActualCash = pgNumericToDecimalPtr(actualCash)
	s.ActualDigital = pgNumericToDecimalPtr(actualDigital)
	s.CashVariance = pgNumericToDecimalPtr(cashVariance)
	s.DigitalVariance = pgNumericToDecimalPtr(digitalVariance)
	if isBalanced.Valid {
		b := isBalanced.Bool
		s.IsBalanced = &b
	}
	s.Notes = textPtr(notes)
	return &s, nil
}
