package db

import (
	"context"
	"errors"
	"time"

	"userhub/internal/config"
	"userhub/internal/domain/user"
	"userhub/internal/security"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the initial admin account when configured and
// missing. Idempotent across restarts.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminName == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE name = $1`, cfg.AdminName).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	role := cfg.AdminRole

	if role == "" {
		role = user.RoleAdmin
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (name, password_hash, role, create_time)
		VALUES ($1, $2, $3, $4)`,
		cfg.AdminName, hash, role, time.Now().UTC(),
	)

	return err
}
