package domain

import "time"

// Role identifies the access level of a registered user.
// Values are stable identifiers persisted in the database; display text
// lives in RoleLabel.
type Role string

const (
	// RoleAdmin grants access to all listings and all users.
	RoleAdmin Role = "admin"
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
)

// RoleLabel maps stable role identifiers to their display labels.
var RoleLabel = map[Role]string{
	RoleAdmin: "Administrator",
	RoleUser:  "User",
}

// User is a registered Telegram user. TelegramID is the identity key.
type User struct {
	TelegramID  int64     `db:"tg_id"`
	DisplayName *string   `db:"display_name"`
	Phone       *string   `db:"phone"`
	Role        Role      `db:"role"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
