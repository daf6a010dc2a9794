package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusDisabled UserStatus = "0"
	UserStatusEnabled  UserStatus = "1"
)

// User is the domain model for administrative accounts. The internal ID
// never leaves the service; PublicID is the external identifier carried in
// token subjects.
type User struct {
	ID           int64
	PublicID     string
	Name         string
	Account      string
	Email        string
	PasswordHash string
	Status       UserStatus
	Avatar       string
	Sex          string
	LoginIP      string
	LoginDate    *time.Time
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Enabled reports whether the account may log in.
func (u *User) Enabled() bool {
	return u.Status == UserStatusEnabled
}
