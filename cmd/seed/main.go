// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seed provisions the bootstrap administrator.
//
// It applies pending migrations, then creates the principal named by
// SEED_ADMIN_EMAIL (or resets the password, lock and status of the existing
// one) and assigns it the ADMIN role. Running it twice is harmless.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/taibuivan/wingconfig/data"
	"github.com/taibuivan/wingconfig/internal/platform/config"
	"github.com/taibuivan/wingconfig/internal/platform/constants"
	"github.com/taibuivan/wingconfig/internal/platform/migration"
	pgstore "github.com/taibuivan/wingconfig/internal/platform/postgres"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
	"github.com/taibuivan/wingconfig/internal/platform/validate"
	"github.com/taibuivan/wingconfig/internal/users/auth"
	"github.com/taibuivan/wingconfig/pkg/uuid"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", constants.AppName), slog.String("command", "seed"))

	cfg, err := config.LoadSeed()
	must(log, err, "load configuration")

	validator := &validate.Validator{}
	must(log, validator.Email("SEED_ADMIN_EMAIL", cfg.AdminEmail).Err(), "validate configuration")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	must(log, migration.RunUp(cfg.DatabaseURL, data.Migrations, data.MigrationsDir, log), "run migrations")

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	hash, err := sec.NewBcryptHasher(0).Hash(cfg.AdminPassword)
	must(log, err, "hash password")

	principalID, err := auth.NewCredentialStore(pool).Provision(ctx, auth.ProvisionInput{
		ID:           uuid.New(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FullName:     cfg.AdminFullName,
		RoleName:     constants.RoleAdmin,
	})
	must(log, err, "provision administrator")

	log.Info("administrator_provisioned",
		slog.String("principal_id", principalID),
		slog.String("email", auth.NormalizeEmail(cfg.AdminEmail)),
	)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("seed_failed",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
