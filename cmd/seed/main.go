// Command seed creates or promotes the admin account from ADMIN_EMAIL, ADMIN_PASSWORD
// and ADMIN_FULL_NAME.
package main

import (
	"context"
	"os"

	"confessions/backend/internal/auth"
	"confessions/backend/internal/config"
	"confessions/backend/internal/db"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("seed", cfg.LogLevel)
	defer logger.Sync()
	ctx := context.Background()

	fail := func(step string, err error) {
		logger.Error("seed_failed", observability.Fields{"step": step, "error": err.Error()})
		logger.Sync()
		os.Exit(1)
	}

	if cfg.AdminEmail == "" || len(cfg.AdminPassword) < 12 {
		logger.Error("seed_failed", observability.Fields{
			"step":  "config",
			"error": "ADMIN_EMAIL and ADMIN_PASSWORD (12+ characters) are required",
		})
		os.Exit(1)
	}
	lists, err := namecheck.LoadLists(cfg.NameListsFile)
	if err != nil {
		fail("load_name_lists", err)
	}
	validator, err := namecheck.New(lists)
	if err != nil {
		fail("build_validator", err)
	}
	result := validator.Validate(cfg.AdminFullName)
	if !result.Valid {
		logger.Error("seed_failed", observability.Fields{
			"step":       "validate_admin_name",
			"error":      result.Primary(),
			"confidence": result.Confidence,
		})
		os.Exit(1)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fail("db_connect", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, db.MigrationSource(cfg.MigrationsDir)); err != nil {
		fail("run_migrations", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		fail("hash_password", err)
	}

	var adminID string
	if err := pool.QueryRow(ctx, `
		INSERT INTO users(email, password_hash, full_name, is_admin, name_validation_score)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			is_admin = TRUE,
			name_validation_score = EXCLUDED.name_validation_score,
			updated_at = NOW()
		RETURNING id::text
	`, cfg.AdminEmail, hash, cfg.AdminFullName, result.Confidence).Scan(&adminID); err != nil {
		fail("upsert_admin", err)
	}

	logger.Info("seed_completed", observability.Fields{
		"admin_id": adminID,
		"email":    cfg.AdminEmail,
	})
}
