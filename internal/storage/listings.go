package storage

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/estatebot/core/logger"
	"github.com/m3rciful/estatebot/internal/conversation"
	"github.com/m3rciful/estatebot/internal/domain"
)

// editableColumns whitelists the columns a field-level edit may touch.
// Field names come from the conversation schema; values are the actual
// column names, so a renamed column never silently widens the surface.
var editableColumns = map[string]string{
	conversation.FieldTitle:       "title",
	conversation.FieldLocation:    "location",
	conversation.FieldDescription: "description",
	conversation.FieldCondition:   "condition",
	conversation.FieldParking:     "parking",
	conversation.FieldBathrooms:   "bathrooms",
	conversation.FieldAdditions:   "additions",
	conversation.FieldPrice:       "price",
	conversation.FieldStatus:      "status",
}

const listingColumns = `id, title, description, location, condition, parking,
	bathrooms, additions, price, media, status, created_by, created_at`

// ListingRepository persists and loads listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository wraps db into a listing repository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts l in a single statement and returns it with the assigned
// id and creation time. Missing creator references and check violations
// surface as domain.ConstraintError.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	start := time.Now()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO listings
		 (title, description, location, condition, parking, bathrooms, additions, price, media, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		l.Title, l.Description, l.Location, l.Condition, l.Parking,
		l.Bathrooms, l.Additions, l.Price, pq.Array([]string(l.Media)), l.Status, l.CreatedBy,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		logger.SVCListings.Error("listing create failed",
			slog.String("event", "listings.create"),
			slog.Int64("user_id", l.CreatedBy),
			slog.String("err", err.Error()),
		)
		return nil, translate("listings.create", "listing", 0, err)
	}
	logger.SVCListings.Info("listing created",
		slog.String("event", "listings.create"),
		slog.String("status", "ok"),
		slog.Int64("listing_id", l.ID),
		slog.Int64("user_id", l.CreatedBy),
		slog.Int("media_count", len(l.Media)),
		slog.Duration("duration", logger.Took(start)),
	)
	return l, nil
}

// Get returns the listing by id or a domain.NotFoundError.
func (r *ListingRepository) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.GetContext(ctx, &l,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		return nil, translate("listings.get", "listing", id, err)
	}
	return &l, nil
}

// UpdateField overwrites a single whitelisted column of one listing row.
func (r *ListingRepository) UpdateField(ctx context.Context, id int64, field string, value any) error {
	column, ok := editableColumns[field]
	if !ok {
		return &domain.ValidationError{Field: field, Reason: "field is not editable"}
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE listings SET %q = $1 WHERE id = $2`, column), value, id)
	if err != nil {
		return translate("listings.update", "listing", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translate("listings.update", "listing", id, err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "listing", ID: id}
	}
	logger.SVCListings.Info("listing field updated",
		slog.String("event", "listings.update"),
		slog.String("status", "ok"),
		slog.Int64("listing_id", id),
		slog.String("field", field),
	)
	return nil
}

// Delete removes one listing row.
func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return translate("listings.delete", "listing", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translate("listings.delete", "listing", id, err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "listing", ID: id}
	}
	logger.SVCListings.Info("listing deleted",
		slog.String("event", "listings.delete"),
		slog.String("status", "ok"),
		slog.Int64("listing_id", id),
	)
	return nil
}

// ListByCreator returns the listings created by userID, newest first.
func (r *ListingRepository) ListByCreator(ctx context.Context, userID int64) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := r.db.SelectContext(ctx, &listings,
		`SELECT `+listingColumns+` FROM listings WHERE created_by = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, translate("listings.list_by_creator", "listing", 0, err)
	}
	return listings, nil
}

// ListAll returns every listing, newest first. Admin-only by policy.
func (r *ListingRepository) ListAll(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := r.db.SelectContext(ctx, &listings,
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("listings.list_all", "listing", 0, err)
	}
	return listings, nil
}
