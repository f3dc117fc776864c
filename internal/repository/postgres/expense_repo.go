package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const expenseColumns = `id, branch_id, session_id, amount, description, spent_at, created_at`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts an expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (branch_id, session_id, amount, description, spent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		expense.BranchID,
		expense.SessionID,
		amount,
		expense.Description,
		expense.SpentAt,
	)
	return scanExpense(row)
}

// ListBySession returns a session's expenses in the order they were paid
func (r *ExpenseRepository) ListBySession(ctx context.Context, branchID, sessionID int32) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE branch_id = $1 AND session_id = $2
		ORDER BY spent_at, id`, branchID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, expense)
	}
	return result, rows.Err()
}

// SumByDateRange totals expenses for spent_at in [start, end)
func (r *ExpenseRepository) SumByDateRange(ctx context.Context, branchID int32, start, end time.Time) (decimal.Decimal, int, error) {
	var (
		total pgtype.Numeric
		count int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE branch_id = $1 AND spent_at >= $2 AND spent_at < $3`, branchID, start, end).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return pgNumericToDecimal(total), int(count), nil
}

// SumBySession totals a session's expenses
func (r *ExpenseRepository) SumBySession(ctx context.Context, branchID, sessionID int32) (decimal.Decimal, int, error) {
	var (
		total pgtype.Numeric
		count int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE branch_id = $1 AND session_id = $2`, branchID, sessionID).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return pgNumericToDecimal(total), int(count), nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e      domain.Expense
		amount pgtype.Numeric
	)
	if err := row.Scan(&e.ID, &e.BranchID, &e.SessionID, &amount, &e.Description, &e.SpentAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	return &e, nil
}
