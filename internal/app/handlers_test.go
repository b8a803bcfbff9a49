package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/domain"
)

func TestListingCardEscapesUserMarkup(t *testing.T) {
	l := &domain.Listing{
		ID:       3,
		Title:    "Flat *deluxe*",
		Location: "Main_street 1",
		Price:    100,
		Status:   domain.StatusAvailable,
	}
	card := listingCard(l)
	if strings.Contains(card, "*deluxe*") {
		t.Errorf("title markup must be escaped:\n%s", card)
	}
	if strings.Contains(card, "Main_street") {
		t.Errorf("location markup must be escaped:\n%s", card)
	}
	if !strings.Contains(card, "#3") {
		t.Errorf("card missing id:\n%s", card)
	}
}

func TestFailureTextNamesTheField(t *testing.T) {
	msg := failureText(&domain.ValidationError{
		Field:  conversation.FieldPrice,
		Reason: "price must be a positive number",
	})
	if !strings.Contains(msg, "Price") {
		t.Errorf("validation message must name the field: %q", msg)
	}
	if !strings.Contains(msg, "price must be a positive number") {
		t.Errorf("validation message must carry the reason: %q", msg)
	}

	msg = failureText(&domain.ValidationError{Field: "name", Reason: "value must not be empty"})
	if !strings.Contains(msg, "name") {
		t.Errorf("non-schema field must still be named: %q", msg)
	}

	msg = failureText(&domain.NotFoundError{Entity: "listing", ID: 9})
	if !strings.Contains(msg, "listing") {
		t.Errorf("not-found message must name the entity: %q", msg)
	}

	if failureText(errors.New("boom")) == "" {
		t.Error("unexpected errors still need a generic message")
	}
}

func TestListingControlsFollowPolicy(t *testing.T) {
	owner := &domain.User{TelegramID: 10, Role: domain.RoleUser, Active: true}
	other := &domain.User{TelegramID: 11, Role: domain.RoleUser, Active: true}
	admin := &domain.User{TelegramID: 12, Role: domain.RoleAdmin, Active: true}
	l := &domain.Listing{ID: 1, CreatedBy: owner.TelegramID}

	if m := listingControls(other, l); m != nil {
		t.Errorf("non-owner must get no controls, got %d rows", len(m.InlineKeyboard))
	}
	m := listingControls(owner, l)
	if m == nil || len(m.InlineKeyboard) != 1 || len(m.InlineKeyboard[0]) != 1 {
		t.Fatalf("owner must get exactly the edit control, got %+v", m)
	}
	m = listingControls(admin, l)
	if m == nil || len(m.InlineKeyboard[0]) != 2 {
		t.Fatalf("admin must get edit and delete, got %+v", m)
	}
}
