package auth

import "github.com/spec-kit/admin-service/internal/domain"

// Identity is the authenticated caller as seen by the rest of the request.
// It is derived from a verified token plus a fresh user lookup and is never
// persisted.
type Identity struct {
	UserID      int64
	PublicID    string
	Account     string
	RoleKeys    []string
	Permissions []string
	IsAdmin     bool
}

// HasRole reports whether the identity holds the role key.
func (i *Identity) HasRole(roleKey string) bool {
	for _, key := range i.RoleKeys {
		if key == roleKey {
			return true
		}
	}
	return false
}

// HasPermission reports whether the identity holds the permission, either
// literally or through the wildcard grant.
func (i *Identity) HasPermission(perm string) bool {
	for _, held := range i.Permissions {
		if held == perm || held == domain.WildcardPermission {
			return true
		}
	}
	return false
}
