package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OperatorRepository implements domain.OperatorRepository using PostgreSQL
type OperatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository creates a new OperatorRepository
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{pool: pool}
}

// GetByAuth0ID retrieves an operator by Auth0 subject
func (r *OperatorRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Operator, error) {
	var (
		op domain.Operator
		id pgtype.UUID
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, auth0_id, branch_id, name, email, created_at
		FROM operators
		WHERE auth0_id = $1`, auth0ID).
		Scan(&id, &op.Auth0ID, &op.BranchID, &op.Name, &op.Email, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, err
	}
	op.ID = uuid.UUID(id.Bytes)
	return &op, nil
}

// GetBranchByAuth0ID resolves the branch an Auth0 subject operates; used by the WebSocket handshake
func (r *OperatorRepository) GetBranchByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	op, err := r.GetByAuth0ID(ctx, auth0ID)
	if err != nil {
		return 0, err
	}
	return op.BranchID, nil
}
