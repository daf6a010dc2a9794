package domain

import "time"

// MenuStatus mirrors the stored char flag.
type MenuStatus string

const (
	MenuStatusDisabled MenuStatus = "0"
	MenuStatusEnabled  MenuStatus = "1"
)

// Menu is a node in the navigation tree. Perms is the permission string a
// menu or action node grants; it is empty for pure directory nodes. Only
// enabled menus with a non-blank Perms contribute to a user's effective
// permission set.
type Menu struct {
	ID        int64
	PublicID  string
	Name      string
	ParentID  int64
	Ancestors string
	Path      string
	Perms     string
	SortOrder int
	Status    MenuStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
