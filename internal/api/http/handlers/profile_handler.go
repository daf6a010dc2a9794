package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-service/internal/service"
)

// ProfileHandler exposes the current caller's account info.
type ProfileHandler struct {
	profile *service.ProfileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(profile *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

// Info handles GET /auth/profile.
func (h *ProfileHandler) Info(c *fiber.Ctx) error {
	info, err := h.profile.GetInfo(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": info})
}

// Routers handles GET /auth/routers.
func (h *ProfileHandler) Routers(c *fiber.Ctx) error {
	routers, err := h.profile.GetRouters(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": routers})
}
