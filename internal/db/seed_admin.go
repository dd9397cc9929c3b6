package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/romanv/postboard/internal/config"
	"github.com/romanv/postboard/internal/security"
)

// EnsureAdminUser seeds the configured admin account on startup so a
// fresh database has at least one identity with the admin projection.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// already there?

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

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

	_, err = pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, name, role, created_at, updated_at)
         VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		cfg.AdminEmail, hash, cfg.AdminName, cfg.AdminRole,
	)

	return err
}
