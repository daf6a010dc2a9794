package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-service/internal/domain"
	"github.com/spec-kit/admin-service/internal/reqctx"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

const identityKey = "auth_identity"

// UserLookup is the narrow read interface onto the user collaborator.
type UserLookup interface {
	GetByPublicIDWithRoles(ctx context.Context, publicID string) (*domain.User, error)
}

// AuthMiddleware is the first-stage gate: it verifies the access token,
// loads the caller's identity with effective permissions and attaches it
// to the request.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    UserLookup
	resolver *PermissionResolver
	logger   *zap.Logger
}

// NewAuthMiddleware constructs the gate. tokens must be the access-class
// manager.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup, resolver *PermissionResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, resolver: resolver, logger: logger}
}

// Handle builds the gate handler for one route's policy.
//
// Public routes tolerate a missing token and swallow token verification
// failures (stale clients keep working anonymously); collaborator errors
// still propagate. Protected routes fail closed on any defect.
func (m *AuthMiddleware) Handle(meta RouteMeta) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearer(c.Get(fiber.HeaderAuthorization))

		if meta.Public {
			if token == "" {
				return c.Next()
			}
			if err := m.attach(c, token); err != nil {
				if apperrors.ToDomainError(err).Code != "UNAUTHENTICATED" {
					return err
				}
				m.logger.Debug("ignoring bad token on public route", reqctx.Fields(c.UserContext())...)
			}
			return c.Next()
		}

		if token == "" {
			return apperrors.NewUnauthenticated("missing access token")
		}
		if err := m.attach(c, token); err != nil {
			return err
		}
		return c.Next()
	}
}

// attach verifies the token, loads the subject with roles and resolves the
// effective permission set.
func (m *AuthMiddleware) attach(c *fiber.Ctx, token string) error {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		m.logger.Debug("token rejected",
			append(reqctx.Fields(c.UserContext()), zap.String("tokenClass", string(m.tokens.Class())), zap.Error(err))...)
		return apperrors.NewUnauthenticated("invalid access token")
	}

	ctx := c.UserContext()
	user, err := m.users.GetByPublicIDWithRoles(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Deleted subjects are indistinguishable from bad tokens.
			return apperrors.NewUnauthenticated("invalid access token")
		}
		return apperrors.MapError(err)
	}

	grants, err := m.resolver.Resolve(ctx, user.Roles)
	if err != nil {
		return apperrors.MapError(err)
	}

	identity := &Identity{
		UserID:      user.ID,
		PublicID:    user.PublicID,
		Account:     user.Account,
		RoleKeys:    grants.RoleKeys,
		Permissions: grants.Permissions,
		IsAdmin:     grants.IsAdmin,
	}
	c.Locals(identityKey, identity)
	reqctx.From(ctx).SetUserPublicID(user.PublicID)
	return nil
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*Identity)
	return identity, ok
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
