package repository

import (
	"context"
	"log/slog"
	"time"

	"feasibility-backend/internal/infra/db"
)

const (
	selectBlacklisted = `SELECT EXISTS (SELECT 1 FROM user_blacklist WHERE user_id = $1)`
	insertBlacklisted = `INSERT INTO user_blacklist (user_id, blacklisted_at) VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`
)

type BlacklistRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewBlacklistRepository(db db.DBTX, logger *slog.Logger) *BlacklistRepository {
	return &BlacklistRepository{db: db, logger: logger}
}

func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	var found bool
	if err := r.db.QueryRow(ctx, selectBlacklisted, userID).Scan(&found); err != nil {
		return false, wrap(r.logger, "failed to read blacklist", err)
	}
	return found, nil
}

// Add keeps the first blacklisting time if the user is already listed.
func (r *BlacklistRepository) Add(ctx context.Context, userID string, at time.Time) error {
	if _, err := r.db.Exec(ctx, insertBlacklisted, userID, at); err != nil {
		return wrap(r.logger, "failed to blacklist user", err)
	}
	return nil
}
