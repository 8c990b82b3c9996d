package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/config"
	"github.com/vive890/academic-resource-depot/internal/logger"
	"github.com/vive890/academic-resource-depot/internal/storage"
	"go.uber.org/zap"
)

func main() {
	var (
		source  string
		up      bool
		down    bool
		promote string
	)

	flag.StringVar(&source, "source", "db/migrations", "Path to migrations directory")
	flag.BoolVar(&up, "up", false, "Run up migrations")
	flag.BoolVar(&down, "down", false, "Run down migrations")
	flag.StringVar(&promote, "promote", "", "Grant the admin role to the account with this email")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if up == down && promote == "" {
		log.Fatal("exactly one of -up or -down is required, or -promote")
	}

	if up || down {
		if err := runMigrations(log, source, cfg.Postgres.DSN(), up); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	if promote != "" {
		if err := promoteAdmin(cfg.Postgres, promote); err != nil {
			log.Fatal("promote admin", zap.String("email", promote), zap.Error(err))
		}
		log.Info("admin role granted", zap.String("email", promote))
	}
}

func runMigrations(log *zap.Logger, source, dsn string, up bool) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", source), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	direction := "down"
	run := m.Down
	if up {
		direction = "up"
		run = m.Up
	}

	log.Info("running migrations", zap.String("direction", direction))
	if err := run(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		return err
	}
	log.Info("migrations completed", zap.String("direction", direction))
	return nil
}

func promoteAdmin(cfg config.PostgresConfig, email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return auth.NewRepository(pool).SetRole(ctx, email, auth.RoleAdmin)
}
