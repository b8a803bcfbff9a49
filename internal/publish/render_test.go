package publish

import (
	"strings"
	"testing"

	"github.com/m3rciful/estatebot/internal/domain"
)

func TestRenderFullCard(t *testing.T) {
	l := &domain.Listing{
		ID:          5,
		Title:       "Riverside District, 12",
		Description: "3 rooms, floor 4 of 9",
		Location:    "Riverside District, 12",
		Condition:   "Renovated",
		Parking:     "Underground",
		Bathrooms:   2,
		Additions:   "Balcony",
		Price:       125000.5,
		Status:      domain.StatusAvailable,
	}
	card := Render(l)

	for _, want := range []string{
		"Riverside District, 12",
		"3 rooms, floor 4 of 9",
		"Renovated",
		"Underground",
		"2 bathroom(s)",
		"Balcony",
		"125000.50",
		domain.StatusLabel[domain.StatusAvailable],
	} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestRenderSkipsEmptySections(t *testing.T) {
	l := &domain.Listing{
		Title:    "Old Town 5",
		Location: "Old Town 5",
		Price:    50000,
		Status:   domain.StatusSold,
	}
	card := Render(l)
	if strings.Contains(card, "🛏") || strings.Contains(card, "🚽") || strings.Contains(card, "✏️") {
		t.Errorf("empty sections must be omitted:\n%s", card)
	}
	if !strings.Contains(card, domain.StatusLabel[domain.StatusSold]) {
		t.Errorf("status footer missing:\n%s", card)
	}
}

func TestRenderEscapesUserMarkup(t *testing.T) {
	l := &domain.Listing{
		Title:    "Flat *deluxe* [rare]",
		Location: "Main_street 1",
		Price:    1,
		Status:   domain.StatusAvailable,
	}
	card := Render(l)
	if strings.Contains(card, "*deluxe*") {
		t.Errorf("user markup must be escaped:\n%s", card)
	}
}
