package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as resolved by the directory.
type Principal struct {
	Actor *domain.Actor
}

// Middleware validates bearer tokens and resolves the acting actor.
type Middleware struct {
	tokens    *TokenManager
	directory directory.Directory
	logger    *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, dir directory.Directory, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{tokens: tokens, directory: dir, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	actor, err := m.directory.ResolveActor(c.UserContext(), claims.Subject)
	if err != nil {
		if !errors.Is(err, directory.ErrUnknownActor) {
			m.logger.Error("directory lookup failed", zap.String("actor_id", claims.Subject), zap.Error(err))
		}
		return apperrors.NewUnauthorizedActor("actor could not be resolved", nil)
	}
	if claims.Role != "" && claims.Role != actor.Role {
		return apperrors.NewUnauthorizedActor("token role does not match directory", nil)
	}

	c.Locals(principalKey, &Principal{Actor: actor})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.Actor != nil
}

// ActorFromContext is a shorthand used by handlers.
func ActorFromContext(c *fiber.Ctx) (*domain.Actor, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor, nil
}
