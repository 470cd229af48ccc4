package http_auth_middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	http_common "github.com/vpetrakov/learnhub/core/internal/delivery/http/common"
	"github.com/vpetrakov/learnhub/core/internal/model"
	service_token "github.com/vpetrakov/learnhub/core/internal/service/token"
)

// AccessCookie is the credential channel for access tokens; refresh
// tokens travel in a distinct cookie and never pass through this gate.
const AccessCookie = "access_token"

const principalKey = "learnhub.principal"

type TokenVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Middleware resolves the request principal: a verified access token
// alone is not enough, the session entry must still exist.
type Middleware struct {
	tokens   TokenVerifier
	sessions SessionStore
	logger   *slog.Logger
}

type MiddlewareOption func(*Middleware)

func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func New(tokens TokenVerifier, sessions SessionStore, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		tokens:   tokens,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(AccessCookie)
		if err != nil || token == "" {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, http_common.NewError(
				"please login to access this resource",
			))
			return
		}

		userID, err := m.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, service_token.ErrTokenExpired) {
				// The client is expected to call the refresh flow.
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, http_common.NewError(
					"access token expired",
				))
				return
			}
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, http_common.NewError(
				"access token is invalid",
			))
			return
		}

		snapshot, err := m.sessions.Get(ctx.Request.Context(), userID)
		if err != nil {
			m.logger.Error("session lookup failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, http_common.NewError(
				"internal error",
			))
			return
		}
		if snapshot == nil {
			ctx.AbortWithStatusJSON(http.StatusNotFound, http_common.NewError(
				"session not found, please login again",
			))
			return
		}

		ctx.Set(principalKey, *snapshot)
		ctx.Next()
	}
}

// RequireRoles layers authorization on top of AuthRequired.
func (m *Middleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := PrincipalFromContext(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, http_common.NewError(
				"please login to access this resource",
			))
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				ctx.Next()
				return
			}
		}

		m.logger.Warn("role not allowed",
			slog.String("role", string(principal.Role)),
			slog.String("path", ctx.Request.URL.Path),
		)
		ctx.AbortWithStatusJSON(http.StatusForbidden, http_common.NewError(
			"role "+string(principal.Role)+" is not allowed to access this resource",
		))
	}
}

func PrincipalFromContext(ctx *gin.Context) (model.User, bool) {
	val, ok := ctx.Get(principalKey)
	if !ok {
		return model.User{}, false
	}
	principal, ok := val.(model.User)
	return principal, ok
}
