// Package access implements the role/ownership authorization policy as a
// pure function, called explicitly at the top of each sensitive handler.
package access

import "github.com/m3rciful/estatebot/internal/domain"

// Action enumerates the operations gated by the policy.
type Action string

const (
	ActionRegister        Action = "register"
	ActionCreateListing   Action = "create_listing"
	ActionEditListing     Action = "edit_listing"
	ActionDeleteListing   Action = "delete_listing"
	ActionViewOwnListings Action = "view_own_listings"
	ActionViewAllListings Action = "view_all_listings"
	ActionViewAllUsers    Action = "view_all_users"
)

// Authorized reports whether user may perform action, optionally against
// target. A nil user represents an unauthenticated identity, which may only
// register. Admin-only: view all listings, view all users, delete any
// listing. Owner-or-admin: edit listing. Authenticated: create listing,
// view own listings.
func Authorized(user *domain.User, action Action, target *domain.Listing) bool {
	if user == nil {
		return action == ActionRegister
	}
	if !user.Active {
		return false
	}

	switch action {
	case ActionRegister:
		// Already registered; nothing to do but harmless.
		return true
	case ActionCreateListing, ActionViewOwnListings:
		return true
	case ActionEditListing:
		if user.IsAdmin() {
			return true
		}
		return target != nil && target.CreatedBy == user.TelegramID
	case ActionDeleteListing, ActionViewAllListings, ActionViewAllUsers:
		return user.IsAdmin()
	}
	return false
}
