package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-service/internal/api/dto"
	"github.com/spec-kit/admin-service/internal/service"
	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

const refreshCookiePath = "/auth/refresh"

const bearerPrefix = "Bearer "

// AuthHandler exposes login, refresh and registration endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	refreshTTL time.Duration
}

// NewAuthHandler constructs the handler. refreshTTL bounds the cookie
// lifetime to the refresh token's own.
func NewAuthHandler(authService *service.AuthService, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: authService, refreshTTL: refreshTTL}
}

// Login handles POST /auth/login. The refresh token leaves only as an
// HttpOnly cookie scoped to the refresh endpoint.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Account == "" || req.Password == "" {
		return apperrors.NewValidationError("account and password required", nil)
	}

	pair, err := h.auth.Login(c.UserContext(), req.Account, req.Password, c.IP())
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    bearerPrefix + pair.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  pair.RefreshExpiresAt,
		MaxAge:   int(h.refreshTTL.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	return c.JSON(fiber.Map{
		"data": dto.TokenResponse{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt},
	})
}

// Refresh handles POST /auth/refresh by rotating the access token from the
// refresh cookie.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	cookie := c.Cookies(RefreshCookieName)
	if cookie == "" {
		return apperrors.NewUnauthenticated("missing refresh token")
	}
	// Clients that quote cookie values with spaces still parse cleanly.
	token := strings.TrimSpace(strings.TrimPrefix(strings.Trim(cookie, `"`), bearerPrefix))

	accessToken, expiresAt, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.TokenResponse{AccessToken: accessToken, ExpiresAt: expiresAt},
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Account == "" || req.Password == "" {
		return apperrors.NewValidationError("name, account, password required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Name, req.Account, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"publicId": user.PublicID,
				"name":     user.Name,
				"account":  user.Account,
			},
		},
	})
}
