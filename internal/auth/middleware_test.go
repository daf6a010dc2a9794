package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-service/internal/auth"
	"github.com/spec-kit/admin-service/internal/domain"
	"github.com/spec-kit/admin-service/internal/reqctx"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

type stubUsers struct {
	user *domain.User
	err  error
}

func (s *stubUsers) GetByPublicIDWithRoles(ctx context.Context, publicID string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.PublicID != publicID {
		return nil, pgx.ErrNoRows
	}
	return s.user, nil
}

type gateHarness struct {
	app    *fiber.App
	tokens *auth.TokenManager
	scope  *reqctx.Scope
}

// newGateHarness wires both gates ahead of a probe handler that reports the
// attached identity.
func newGateHarness(t *testing.T, meta auth.RouteMeta, users auth.UserLookup, menus auth.MenuPermsLookup) *gateHarness {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})

	h := &gateHarness{app: app, tokens: auth.NewTokenManager(auth.TokenClassAccess, "gate-secret", time.Hour)}

	app.Use(func(c *fiber.Ctx) error {
		ctx, scope := reqctx.Begin(c.UserContext(), "rid-test")
		h.scope = scope
		c.SetUserContext(ctx)
		return c.Next()
	})

	gate := auth.NewAuthMiddleware(h.tokens, users, auth.NewPermissionResolver(menus), zap.NewNop())
	app.Get("/probe", gate.Handle(meta), auth.Require(meta), func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFromContext(c)
		if !ok {
			return c.JSON(fiber.Map{"anonymous": true})
		}
		return c.JSON(fiber.Map{
			"publicId":    identity.PublicID,
			"permissions": identity.Permissions,
			"isAdmin":     identity.IsAdmin,
		})
	})
	return h
}

func (h *gateHarness) probe(t *testing.T, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := h.app.Test(req)
	require.NoError(t, err)
	return res
}

func editorUser() *domain.User {
	return &domain.User{
		ID:       42,
		PublicID: "pub-editor",
		Account:  "edith",
		Status:   domain.UserStatusEnabled,
		Roles:    []domain.Role{{ID: 1, RoleKey: "editor"}},
	}
}

func TestProtectedRouteMissingToken(t *testing.T) {
	h := newGateHarness(t, auth.Protected, &stubUsers{}, &stubMenus{})
	res := h.probe(t, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRouteValidToken(t *testing.T) {
	users := &stubUsers{user: editorUser()}
	h := newGateHarness(t, auth.Protected, users, &stubMenus{perms: []string{"sys:user:list"}})

	token, _, err := h.tokens.Issue("pub-editor", "edith")
	require.NoError(t, err)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "pub-editor", h.scope.UserPublicID(), "gate must update the request scope")
	assert.Equal(t, "rid-test", h.scope.RequestID(), "correlation id must survive the identity update")
}

func TestProtectedRouteExpiredToken(t *testing.T) {
	users := &stubUsers{user: editorUser()}
	h := newGateHarness(t, auth.Protected, users, &stubMenus{})

	expired := auth.NewTokenManager(auth.TokenClassAccess, "gate-secret", time.Nanosecond)
	token, _, err := expired.Issue("pub-editor", "edith")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRouteDeletedSubject(t *testing.T) {
	h := newGateHarness(t, auth.Protected, &stubUsers{}, &stubMenus{})

	token, _, err := h.tokens.Issue("pub-ghost", "ghost")
	require.NoError(t, err)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRouteStorageError(t *testing.T) {
	h := newGateHarness(t, auth.Protected, &stubUsers{err: errors.New("connection refused")}, &stubMenus{})

	token, _, err := h.tokens.Issue("pub-editor", "edith")
	require.NoError(t, err)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode,
		"a broken backend must not masquerade as a bad token")
}

func TestPublicRouteNoToken(t *testing.T) {
	h := newGateHarness(t, auth.Public, &stubUsers{}, &stubMenus{})
	res := h.probe(t, "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, h.scope.UserPublicID())
}

func TestPublicRouteBadTokenSwallowed(t *testing.T) {
	h := newGateHarness(t, auth.Public, &stubUsers{}, &stubMenus{})
	res := h.probe(t, "garbage-token")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, h.scope.UserPublicID())
}

func TestPublicRouteValidTokenAttachesIdentity(t *testing.T) {
	users := &stubUsers{user: editorUser()}
	h := newGateHarness(t, auth.Public, users, &stubMenus{perms: []string{"sys:user:list"}})

	token, _, err := h.tokens.Issue("pub-editor", "edith")
	require.NoError(t, err)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "pub-editor", h.scope.UserPublicID())
}

func TestPublicRouteStorageErrorNotSwallowed(t *testing.T) {
	h := newGateHarness(t, auth.Public, &stubUsers{err: errors.New("connection refused")}, &stubMenus{})

	token, _, err := h.tokens.Issue("pub-editor", "edith")
	require.NoError(t, err)

	res := h.probe(t, token)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}
