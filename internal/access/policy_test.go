package access

import (
	"testing"

	"github.com/m3rciful/estatebot/internal/domain"
)

func user(id int64, role domain.Role, active bool) *domain.User {
	return &domain.User{TelegramID: id, Role: role, Active: active}
}

func TestAuthorized(t *testing.T) {
	owner := user(10, domain.RoleUser, true)
	other := user(11, domain.RoleUser, true)
	admin := user(12, domain.RoleAdmin, true)
	inactive := user(13, domain.RoleAdmin, false)
	listing := &domain.Listing{ID: 1, CreatedBy: owner.TelegramID}

	cases := []struct {
		name   string
		user   *domain.User
		action Action
		target *domain.Listing
		want   bool
	}{
		{"nil user may register", nil, ActionRegister, nil, true},
		{"nil user may not create", nil, ActionCreateListing, nil, false},
		{"nil user may not view", nil, ActionViewOwnListings, nil, false},
		{"inactive admin denied everything", inactive, ActionViewAllListings, nil, false},
		{"inactive admin cannot register again", inactive, ActionRegister, nil, false},
		{"user creates listings", owner, ActionCreateListing, nil, true},
		{"user views own listings", owner, ActionViewOwnListings, nil, true},
		{"owner edits own listing", owner, ActionEditListing, listing, true},
		{"non-owner cannot edit", other, ActionEditListing, listing, false},
		{"admin edits any listing", admin, ActionEditListing, listing, true},
		{"edit without target denied for non-admin", owner, ActionEditListing, nil, false},
		{"owner cannot delete", owner, ActionDeleteListing, listing, false},
		{"admin deletes", admin, ActionDeleteListing, listing, true},
		{"user cannot view all listings", owner, ActionViewAllListings, nil, false},
		{"admin views all listings", admin, ActionViewAllListings, nil, true},
		{"user cannot view users", owner, ActionViewAllUsers, nil, false},
		{"admin views users", admin, ActionViewAllUsers, nil, true},
		{"unknown action denied", admin, Action("reboot"), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorized(tc.user, tc.action, tc.target); got != tc.want {
				t.Errorf("Authorized(%v, %s) = %v, want %v", tc.user, tc.action, got, tc.want)
			}
		})
	}
}
