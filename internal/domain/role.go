package domain

import "time"

// AdminRoleKey is the role key granting unrestricted access.
const AdminRoleKey = "admin"

// WildcardPermission satisfies any permission requirement.
const WildcardPermission = "*:*:*"

// Role groups menu grants under a semantic key. RoleKey is unique among
// live roles and is what route requirements match against.
type Role struct {
	ID        int64
	PublicID  string
	Name      string
	RoleKey   string
	SortOrder int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
