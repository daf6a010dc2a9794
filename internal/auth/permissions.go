package auth

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/admin-service/internal/domain"
)

// MenuPermsLookup is the narrow read interface onto the menu collaborator.
// Implementations return the permission strings of enabled, live menus
// reachable through the role↔menu association for the given role ids.
type MenuPermsLookup interface {
	ListEnabledPermsByRoleIDs(ctx context.Context, roleIDs []int64) ([]string, error)
}

// Grants is the effective access a role set confers.
type Grants struct {
	RoleKeys    []string
	Permissions []string
	IsAdmin     bool
}

// PermissionResolver computes effective permissions from a user's roles.
// It holds no state beyond the lookup collaborator and is safe for
// concurrent use.
type PermissionResolver struct {
	menus MenuPermsLookup
}

// NewPermissionResolver builds a resolver over the menu lookup.
func NewPermissionResolver(menus MenuPermsLookup) *PermissionResolver {
	return &PermissionResolver{menus: menus}
}

// Resolve aggregates the distinct permission strings reachable from roles.
// The admin role short-circuits to the wildcard without touching the menu
// collaborator. Blank permission strings are dropped. Resolving the same
// role set twice yields the same grants.
func (r *PermissionResolver) Resolve(ctx context.Context, roles []domain.Role) (*Grants, error) {
	roleKeys := dedupe(roleKeysOf(roles))

	for _, key := range roleKeys {
		if key == domain.AdminRoleKey {
			return &Grants{
				RoleKeys:    roleKeys,
				Permissions: []string{domain.WildcardPermission},
				IsAdmin:     true,
			}, nil
		}
	}

	if len(roles) == 0 {
		return &Grants{RoleKeys: roleKeys, Permissions: []string{}}, nil
	}

	roleIDs := make([]int64, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}

	perms, err := r.menus.ListEnabledPermsByRoleIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(perms))
	for _, perm := range perms {
		if strings.TrimSpace(perm) == "" {
			continue
		}
		filtered = append(filtered, perm)
	}

	return &Grants{RoleKeys: roleKeys, Permissions: dedupe(filtered)}, nil
}

func roleKeysOf(roles []domain.Role) []string {
	keys := make([]string, 0, len(roles))
	for _, role := range roles {
		keys = append(keys, role.RoleKey)
	}
	return keys
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
