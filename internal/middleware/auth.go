package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// OperatorIDKey is the context key for the operator's ID
	OperatorIDKey contextKey = "operator_id"
	// BranchIDKey is the context key for the operator's branch ID
	BranchIDKey contextKey = "branch_id"
)

// OperatorProvider resolves an Auth0 subject to a POS operator
type OperatorProvider interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Operator, error)
}

// TokenValidator validates a raw bearer token; *validator.Validator satisfies it
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator        TokenValidator
	operatorProvider OperatorProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, operatorProvider OperatorProvider) (*AuthMiddleware, error) {
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

	return NewAuthMiddlewareWithValidator(jwtValidator, operatorProvider), nil
}

// NewAuthMiddlewareWithValidator creates an AuthMiddleware around an existing token validator
func NewAuthMiddlewareWithValidator(tokenValidator TokenValidator, operatorProvider OperatorProvider) *AuthMiddleware {
	return &AuthMiddleware{
		validator:        tokenValidator,
		operatorProvider: operatorProvider,
	}
}

// Authenticate returns an Echo middleware that validates JWT tokens and
// injects the operator and branch into the request context
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "invalid authorization header format")
			}

			claims, err := m.validator.ValidateToken(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return unauthorizedError(c, "invalid claims")
			}

			auth0ID := validatedClaims.RegisteredClaims.Subject

			ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
			ctx = context.WithValue(ctx, Auth0IDKey, auth0ID)

			if m.operatorProvider != nil {
				operator, err := m.operatorProvider.GetByAuth0ID(ctx, auth0ID)
				if err != nil {
					log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("Operator lookup failed")
					return unauthorizedError(c, "operator not found")
				}
				ctx = context.WithValue(ctx, OperatorIDKey, operator.ID)
				ctx = context.WithValue(ctx, BranchIDKey, operator.BranchID)
			}

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetOperatorID extracts the operator ID from the context
func GetOperatorID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(OperatorIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetBranchID extracts the branch ID from the context
func GetBranchID(c echo.Context) int32 {
	if id, ok := c.Request().Context().Value(BranchIDKey).(int32); ok {
		return id
	}
	return 0
}
