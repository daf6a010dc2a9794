package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/admin-service/pkg/util"
)

// Require builds the second-stage gate for a route's policy. It must be
// registered after the authentication gate for the same route.
//
// Decision order: no declared requirements → allow; requirements but no
// identity → forbidden; admin → allow; otherwise the caller needs any one
// of meta.Roles and every one of meta.Perms.
func Require(meta RouteMeta) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(meta.Roles) == 0 && len(meta.Perms) == 0 {
			return c.Next()
		}

		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewForbidden("not authenticated")
		}
		if identity.IsAdmin {
			return c.Next()
		}

		rolesOk := len(meta.Roles) == 0 || hasAnyRole(identity, meta.Roles)
		permsOk := len(meta.Perms) == 0 || hasAllPerms(identity, meta.Perms)
		if !rolesOk || !permsOk {
			return apperrors.NewForbidden("insufficient privileges")
		}
		return c.Next()
	}
}

func hasAnyRole(identity *Identity, roles []string) bool {
	for _, role := range roles {
		if identity.HasRole(role) {
			return true
		}
	}
	return false
}

func hasAllPerms(identity *Identity, perms []string) bool {
	for _, perm := range perms {
		if !identity.HasPermission(perm) {
			return false
		}
	}
	return true
}
