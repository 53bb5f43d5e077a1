package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/auth"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity context keys and headers
const (
	ActorKey         = "actor"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
	UserHeaderKey    = "X-User-ID"
	CompanyHeaderKey = "X-Company-ID"
)

// TokenValidator resolves a bearer token into an actor
type TokenValidator interface {
	ValidateActor(token string) (shared.Actor, error)
}

// IdentityConfig holds configuration for the identity middleware
type IdentityConfig struct {
	// Tokens validates bearer tokens; nil disables token auth
	Tokens TokenValidator
	// AllowHeaderIdentity accepts X-User-ID / X-Company-ID when no bearer
	// token is sent. Development only.
	AllowHeaderIdentity bool
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultIdentityConfig returns the default identity configuration
func DefaultIdentityConfig(tokens TokenValidator) IdentityConfig {
	return IdentityConfig{
		Tokens:    tokens,
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/health"},
	}
}

// Identity resolves the calling actor from a JWT bearer or, when allowed,
// from the dev headers. The actor is stored in the gin context and its ids
// are attached to the request logger.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		actor, err := resolveActor(c, cfg)
		if err != nil {
			log.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", path))
			abortUnauthorized(c, err)
			return
		}

		c.Set(ActorKey, actor)
		ctx := c.Request.Context()
		ctx = logger.WithCompanyID(ctx, actor.CompanyID.String())
		if actor.UserID != uuid.Nil {
			ctx = logger.WithUserID(ctx, actor.UserID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func resolveActor(c *gin.Context, cfg IdentityConfig) (shared.Actor, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return shared.Actor{}, auth.ErrInvalidToken
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" || cfg.Tokens == nil {
			return shared.Actor{}, auth.ErrInvalidToken
		}
		return cfg.Tokens.ValidateActor(token)
	}

	if !cfg.AllowHeaderIdentity {
		return shared.Actor{}, errMissingCredentials
	}
	companyID, err := uuid.Parse(c.GetHeader(CompanyHeaderKey))
	if err != nil || companyID == uuid.Nil {
		return shared.Actor{}, auth.ErrMissingCompanyID
	}
	var userID uuid.UUID
	if raw := c.GetHeader(UserHeaderKey); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			return shared.Actor{}, auth.ErrMissingUserID
		}
	}
	return shared.NewActor(userID, companyID), nil
}

var errMissingCredentials = errors.New("missing authorization header")

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = "TOKEN_NOT_VALID", "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		code, message = "INVALID_TOKEN", "Invalid token"
	case errors.Is(err, auth.ErrMissingCompanyID):
		code, message = "COMPANY_REQUIRED", "Company context is required"
	}
	resp := dto.NewErrorResponseWithRequestID(code, message, c.GetString(logger.RequestIDKey))
	resp.Error.Kind = string(shared.KindUnauthorized)
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// GetActor returns the actor resolved by Identity
func GetActor(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}
