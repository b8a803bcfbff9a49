package domain

import (
	"time"

	"github.com/lib/pq"
)

// Status identifies the lifecycle state of a listing. Values are stable
// identifiers persisted in the database; display text lives in StatusLabel.
type Status string

const (
	// StatusAvailable marks a listing that is up for sale.
	StatusAvailable Status = "available"
	// StatusSold marks a listing that has been sold.
	StatusSold Status = "sold"
	// StatusPriceChanged marks a listing whose price was updated after publication.
	StatusPriceChanged Status = "price_changed"
	// StatusRemoved marks a listing withdrawn from sale.
	StatusRemoved Status = "removed"
)

// StatusLabel maps stable status identifiers to their display labels.
var StatusLabel = map[Status]string{
	StatusAvailable:    "Available",
	StatusSold:         "Sold",
	StatusPriceChanged: "Price changed",
	StatusRemoved:      "Removed",
}

// ValidStatus reports whether s is a known listing status identifier.
func ValidStatus(s string) bool {
	_, ok := StatusLabel[Status(s)]
	return ok
}

// Listing is a persisted real-estate record created through a completed
// creation conversation. Media holds ordered opaque Telegram file IDs.
type Listing struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Location    string         `db:"location"`
	Condition   string         `db:"condition"`
	Parking     string         `db:"parking"`
	Bathrooms   int            `db:"bathrooms"`
	Additions   string         `db:"additions"`
	Price       float64        `db:"price"`
	Media       pq.StringArray `db:"media"`
	Status      Status         `db:"status"`
	CreatedBy   int64          `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
}
