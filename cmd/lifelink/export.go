package main

import (
	"context"
	"fmt"
	"os"

	"lifelink/internal/db"
	"lifelink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Write every donor and patient to a fresh xlsx workbook",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output path",
			Value:   "lifelink_export.xlsx",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()
		logger := logrus.StandardLogger()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		donors, err := store.NewDonorRepository(pool).Donors(ctx)
		if err != nil {
			return err
		}

		patients, err := store.NewPatientRepository(pool).Patients(ctx)
		if err != nil {
			return err
		}

		m, err := newMirror(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}

		doc, err := m.Export(ctx, donors, patients)
		if err != nil {
			return err
		}

		out := c.String("out")
		if err := os.WriteFile(out, doc, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		logger.WithFields(logrus.Fields{
			"path":     out,
			"donors":   len(donors),
			"patients": len(patients),
		}).Info("export written")

		return nil
	},
}
