// Package storage provides the sqlx/Postgres repositories behind the bot.
// Every operation is atomic with respect to a single row; no cross-row
// transactions are assumed by callers.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/estatebot/core/logger"
	"github.com/m3rciful/estatebot/internal/domain"
)

// UserRepository persists and loads registered users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository wraps db into a user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByTelegramID returns the user for tgID, or (nil, nil) when the identity
// has never registered. Callers treat a nil user as unauthenticated.
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, tgID int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u,
		`SELECT tg_id, display_name, phone, role, active, created_at
		 FROM users WHERE tg_id = $1`, tgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("users.get", "user", tgID, err)
	}
	return &u, nil
}

// Create inserts a new user. A duplicate registration race surfaces as a
// domain.ConstraintError.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	start := time.Now()
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (tg_id, display_name, phone, role, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		u.TelegramID, u.DisplayName, u.Phone, u.Role, u.Active,
	).Scan(&u.CreatedAt)
	if err != nil {
		logger.SVCUsers.Error("user create failed",
			slog.String("event", "users.create"),
			slog.Int64("user_id", u.TelegramID),
			slog.String("err", err.Error()),
		)
		return translate("users.create", "user", u.TelegramID, err)
	}
	logger.SVCUsers.Info("user created",
		slog.String("event", "users.create"),
		slog.String("status", "ok"),
		slog.Int64("user_id", u.TelegramID),
		slog.String("role", string(u.Role)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// List returns all users ordered by registration time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT tg_id, display_name, phone, role, active, created_at
		 FROM users ORDER BY created_at`)
	if err != nil {
		return nil, translate("users.list", "user", 0, err)
	}
	return users, nil
}
