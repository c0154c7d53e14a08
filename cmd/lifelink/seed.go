package main

import (
	"context"
	"fmt"

	"lifelink/internal/db"
	"lifelink/internal/seed"
	"lifelink/internal/store"
	"lifelink/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo donors and patients",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:  "lat",
			Usage: "Latitude the demo data is placed around",
			Value: 12.9716,
		},
		&cli.Float64Flag{
			Name:  "lng",
			Usage: "Longitude the demo data is placed around",
			Value: 77.5946,
		},
		&cli.BoolFlag{
			Name:  "mirror",
			Usage: "Also append newly created records to the xlsx mirror",
			Value: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		origin := types.Point{Longitude: c.Float64("lng"), Latitude: c.Float64("lat")}
		if !origin.Valid() {
			return fmt.Errorf("invalid origin %v", origin)
		}

		ctx := context.Background()
		logger := logrus.StandardLogger()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("Connected to database")

		var appender seed.Appender
		if c.Bool("mirror") {
			m, err := newMirror(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			appender = m
		}

		_, err = seed.Donors(ctx, logger, store.NewDonorRepository(pool), appender, origin)
		if err != nil {
			return fmt.Errorf("failed to seed donors: %w", err)
		}

		_, err = seed.Patients(ctx, logger, store.NewPatientRepository(pool), appender, origin)
		if err != nil {
			return fmt.Errorf("failed to seed patients: %w", err)
		}

		return nil
	},
}
