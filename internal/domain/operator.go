package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operator is a cashier or branch manager allowed to run the POS drawer
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Auth0ID   string    `json:"-"`
	BranchID  int32     `json:"branchId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// OperatorRepository defines the interface for operator lookups
type OperatorRepository interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*Operator, error)
}
