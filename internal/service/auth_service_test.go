package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/admin-service/internal/auth"
	"github.com/spec-kit/admin-service/internal/config"
	"github.com/spec-kit/admin-service/internal/domain"
	"github.com/spec-kit/admin-service/internal/reqctx"
	"github.com/spec-kit/admin-service/internal/service"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

type stubUserRepo struct {
	byAccount map[string]*domain.User
	created   []*domain.User
	stamped   int
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	user.ID = int64(len(s.created) + 1)
	s.created = append(s.created, user)
	if s.byAccount == nil {
		s.byAccount = map[string]*domain.User{}
	}
	s.byAccount[user.Account] = user
	return nil
}

func (s *stubUserRepo) GetByAccount(ctx context.Context, account string) (*domain.User, error) {
	if user, ok := s.byAccount[account]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) GetByPublicIDWithRoles(ctx context.Context, publicID string) (*domain.User, error) {
	for _, user := range s.byAccount {
		if user.PublicID == publicID {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) StampLogin(ctx context.Context, id int64, ip string, at time.Time) error {
	s.stamped++
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:      "access-secret",
		AccessTTLMinutes:  120,
		RefreshSecret:     "refresh-secret",
		RefreshTTLMinutes: 7 * 24 * 60,
		BcryptCost:        bcrypt.MinCost,
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, account, password string, status domain.UserStatus, roles ...domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		ID:           1,
		PublicID:     "pub-" + account,
		Account:      account,
		PasswordHash: string(hash),
		Status:       status,
		Roles:        roles,
	}
	if repo.byAccount == nil {
		repo.byAccount = map[string]*domain.User{}
	}
	repo.byAccount[account] = user
	return user
}

func newService(repo *stubUserRepo, throttle *auth.LoginThrottle) *service.AuthService {
	return service.NewAuthService(testAuthConfig(), service.AuthDependencies{
		UserRepo: repo,
		Throttle: throttle,
		Logger:   zap.NewNop(),
	})
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled, domain.Role{ID: 1, RoleKey: "editor"})
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	ctx, scope := reqctx.Begin(context.Background(), "rid-login")
	pair, err := svc.Login(ctx, "edith", "secret-pw", "10.0.0.1")
	require.NoError(t, err)

	claims, err := svc.AccessTokens().Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "pub-edith", claims.Subject)
	assert.Equal(t, "edith", claims.Account)

	assert.Equal(t, "pub-edith", scope.UserPublicID(), "login must update the request scope")
	assert.Equal(t, 1, repo.stamped)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
}

func TestLoginGenericFailures(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled)
	seedUser(t, repo, "dora", "secret-pw", domain.UserStatusDisabled)
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	cases := []struct {
		name     string
		account  string
		password string
	}{
		{"wrong password", "edith", "wrong"},
		{"unknown account", "nobody", "secret-pw"},
		{"disabled account", "dora", "secret-pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.account, tc.password, "")
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, "UNAUTHENTICATED", de.Code)
			assert.Equal(t, "invalid account or password", de.Message,
				"failure reason must not leak")
		})
	}
}

func TestLoginThrottled(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	throttle := auth.NewLoginThrottle(client, 2, time.Minute, time.Minute)
	svc := newService(repo, throttle)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, "edith", "wrong", "")
		require.Error(t, err)
	}

	// Correct credentials are refused while the lockout holds.
	_, err := svc.Login(ctx, "edith", "secret-pw", "")
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_ATTEMPTS", apperrors.ToDomainError(err).Code)
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled)
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	pair, err := svc.Login(context.Background(), "edith", "secret-pw", "")
	require.NoError(t, err)

	ctx, scope := reqctx.Begin(context.Background(), "rid-refresh")
	accessToken, expiresAt, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.AccessTokens().Verify(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "pub-edith", claims.Subject)
	assert.Equal(t, "pub-edith", scope.UserPublicID())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled)
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	pair, err := svc.Login(context.Background(), "edith", "secret-pw", "")
	require.NoError(t, err)

	// An access token must never pass refresh verification.
	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHENTICATED", apperrors.ToDomainError(err).Code)
}

func TestRegisterCreatesAccount(t *testing.T) {
	repo := &stubUserRepo{}
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	user, err := svc.Register(context.Background(), "Edith", "edith", "edith@example.com", "secret-pw")
	require.NoError(t, err)

	assert.NotEmpty(t, user.PublicID)
	assert.Equal(t, domain.UserStatusEnabled, user.Status)
	require.Len(t, repo.created, 1)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "secret-pw"))
	assert.NotEqual(t, "secret-pw", user.PasswordHash)
}

func TestRegisterDuplicateAccount(t *testing.T) {
	repo := &stubUserRepo{}
	seedUser(t, repo, "edith", "secret-pw", domain.UserStatusEnabled)
	svc := newService(repo, auth.NewLoginThrottle(nil, 0, 0, 0))

	_, err := svc.Register(context.Background(), "Edith", "edith", "", "other-pw")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}
