package main

import (
	"context"
	"fmt"

	"lifelink/internal/db"
	"lifelink/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply pending database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		return migrate(ctx, pool, cfg, logrus.StandardLogger())
	},
}

func migrate(ctx context.Context, pool *pgxpool.Pool, cfg *types.Config, logger *logrus.Logger) error {
	applied, err := db.NewMigrator(pool, logger).Up(ctx, cfg.DatabaseSchema)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"schema":  cfg.DatabaseSchema,
		"applied": applied,
	}).Info("database schema up to date")

	return nil
}
