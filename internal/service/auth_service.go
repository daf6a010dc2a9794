package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/admin-service/internal/auth"
	"github.com/spec-kit/admin-service/internal/config"
	"github.com/spec-kit/admin-service/internal/domain"
	"github.com/spec-kit/admin-service/internal/repository"
	"github.com/spec-kit/admin-service/internal/reqctx"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login and refresh flows.
type AuthService struct {
	users         repository.UserRepository
	accessTokens  *auth.TokenManager
	refreshTokens *auth.TokenManager
	throttle      *auth.LoginThrottle
	bcryptCost    int
	logger        *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Throttle *auth.LoginThrottle
	Logger   *zap.Logger
}

// NewAuthService builds the service with independent access and refresh
// signing contexts.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:         deps.UserRepo,
		accessTokens:  auth.NewTokenManager(auth.TokenClassAccess, cfg.AccessSecret, cfg.AccessTTL()),
		refreshTokens: auth.NewTokenManager(auth.TokenClassRefresh, cfg.RefreshSecret, cfg.RefreshTTL()),
		throttle:      deps.Throttle,
		bcryptCost:    cfg.BcryptCost,
		logger:        deps.Logger,
	}
}

// Login authenticates an account and issues an access/refresh token pair.
// All credential failures return the same generic error so the response
// never reveals whether the account exists or is disabled.
func (s *AuthService) Login(ctx context.Context, account, password, ip string) (*TokenPair, error) {
	if err := s.throttle.Check(ctx, account); err != nil {
		return nil, err
	}

	user, err := s.users.GetByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.failLogin(ctx, account)
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Enabled() {
		return nil, s.failLogin(ctx, account)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.failLogin(ctx, account)
	}

	if err := s.throttle.Reset(ctx, account); err != nil {
		s.logger.Warn("reset login throttle", append(reqctx.Fields(ctx), zap.Error(err))...)
	}

	reqctx.From(ctx).SetUserPublicID(user.PublicID)

	if err := s.users.StampLogin(ctx, user.ID, ip, time.Now()); err != nil {
		// The login itself succeeded; losing the stamp is log-worthy only.
		s.logger.Warn("stamp last login", append(reqctx.Fields(ctx), zap.Error(err))...)
	}

	accessToken, accessExp, err := s.accessTokens.Issue(user.PublicID, user.Account)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	refreshToken, refreshExp, err := s.refreshTokens.Issue(user.PublicID, user.Account)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) failLogin(ctx context.Context, account string) error {
	if err := s.throttle.RecordFailure(ctx, account); err != nil {
		s.logger.Warn("record login failure", append(reqctx.Fields(ctx), zap.Error(err))...)
	}
	return apperrors.NewUnauthenticated("invalid account or password")
}

// Refresh verifies a refresh token and issues a new access token for the
// same subject.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.refreshTokens.Verify(refreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", append(reqctx.Fields(ctx), zap.Error(err))...)
		return "", time.Time{}, apperrors.NewUnauthenticated("invalid refresh token")
	}

	reqctx.From(ctx).SetUserPublicID(claims.Subject)

	accessToken, expiresAt, err := s.accessTokens.Issue(claims.Subject, claims.Account)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return accessToken, expiresAt, nil
}

// Register creates a new account, delegating persistence to the user
// collaborator.
func (s *AuthService) Register(ctx context.Context, name, account, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByAccount(ctx, account); err == nil {
		return nil, apperrors.NewConflict("account already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		PublicID:     uuid.NewString(),
		Name:         name,
		Account:      account,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusEnabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// AccessTokens exposes the access-class manager for the authentication
// gate.
func (s *AuthService) AccessTokens() *auth.TokenManager {
	return s.accessTokens
}
