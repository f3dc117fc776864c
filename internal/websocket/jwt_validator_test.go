package websocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBranchLookup struct {
	branchID int32
	err      error
}

func (s *stubBranchLookup) GetBranchByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	return s.branchID, s.err
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	assert.NoError(t, claims.Validate(context.Background()))
}

func TestNewAuth0JWTValidator(t *testing.T) {
	v, err := NewAuth0JWTValidator("washpos.auth0.com", "https://api.washpos.app", &stubBranchLookup{branchID: 3})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestAuth0JWTValidator_RejectsMalformedToken(t *testing.T) {
	v, err := NewAuth0JWTValidator("washpos.auth0.com", "https://api.washpos.app", &stubBranchLookup{branchID: 3})
	require.NoError(t, err)

	branchID, err := v.ValidateToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, int32(0), branchID)
}
