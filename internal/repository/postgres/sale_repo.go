package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const saleColumns = `id, branch_id, session_id, amount, channel, reference, sold_at, created_at`

// SaleRepository implements domain.SaleRepository using PostgreSQL
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create inserts a sale
func (r *SaleRepository) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	amount, err := decimalToPgNumeric(sale.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO sales (branch_id, session_id, amount, channel, reference, sold_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+saleColumns,
		sale.BranchID,
		sale.SessionID,
		amount,
		string(sale.Channel),
		ptrToText(sale.Reference),
		sale.SoldAt,
	)
	return scanSale(row)
}

// ListBySession returns a session's sales in the order they were taken
func (r *SaleRepository) ListBySession(ctx context.Context, branchID, sessionID int32) ([]*domain.Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE branch_id = $1 AND session_id = $2
		ORDER BY sold_at, id`, branchID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sale)
	}
	return result, rows.Err()
}

// SumByChannelAndDateRange totals sales per payment channel for sold_at in [start, end)
func (r *SaleRepository) SumByChannelAndDateRange(ctx context.Context, branchID int32, start, end time.Time) ([]*domain.ChannelTotals, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel, COALESCE(SUM(amount), 0), COUNT(*)
		FROM sales
		WHERE branch_id = $1 AND sold_at >= $2 AND sold_at < $3
		GROUP BY channel
		ORDER BY channel`, branchID, start, end)
	if err != nil {
		return nil, err
	}
	return collectChannelTotals(rows)
}

// SumByChannelAndSession totals a session's sales per payment channel
func (r *SaleRepository) SumByChannelAndSession(ctx context.Context, branchID, sessionID int32) ([]*domain.ChannelTotals, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel, COALESCE(SUM(amount), 0), COUNT(*)
		FROM sales
		WHERE branch_id = $1 AND session_id = $2
		GROUP BY channel
		ORDER BY channel`, branchID, sessionID)
	if err != nil {
		return nil, err
	}
	return collectChannelTotals(rows)
}

func collectChannelTotals(rows pgx.Rows) ([]*domain.ChannelTotals, error) {
	defer rows.Close()

	result := []*domain.ChannelTotals{}
	for rows.Next() {
		var (
			channel string
			total   pgtype.Numeric
			count   int64
		)
		if err := rows.Scan(&channel, &total, &count); err != nil {
			return nil, err
		}
		result = append(result, &domain.ChannelTotals{
			Channel: domain.PaymentChannel(channel),
			Total:   pgNumericToDecimal(total),
			Count:   int(count),
		})
	}
	return result, rows.Err()
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var (
		s         domain.Sale
		amount    pgtype.Numeric
		channel   string
		reference pgtype.Text
	)
	if err := row.Scan(&s.ID, &s.BranchID, &s.SessionID, &amount, &channel, &reference, &s.SoldAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Amount = pgNumericToDecimal(amount)
	s.Channel = domain.PaymentChannel(channel)
	s.Reference = textPtr(reference)
	return &s, nil
}
