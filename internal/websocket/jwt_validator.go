package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when JWT validation fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrBranchNotFound is returned when the token subject is not an operator of any branch
	ErrBranchNotFound = errors.New("branch not found")
)

// BranchLookup resolves the branch an authenticated subject operates
type BranchLookup interface {
	GetBranchByAuth0ID(ctx context.Context, auth0ID string) (branchID int32, err error)
}

// CustomClaims carries no extra claims for socket connections
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates the ?token= query parameter of a socket upgrade
type Auth0JWTValidator struct {
	validator *validator.Validator
	branches  BranchLookup
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, branches BranchLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator: jwtValidator,
		branches:  branches,
	}, nil
}

// ValidateToken validates a JWT and returns the operator's branch
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	branchID, err := v.branches.GetBranchByAuth0ID(ctx, validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrBranchNotFound
	}
	return branchID, nil
}
