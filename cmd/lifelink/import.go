package main

import (
	"context"
	"fmt"
	"os"

	"lifelink/internal/db"
	"lifelink/internal/mirror"
	"lifelink/internal/store"

	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var importCommand = &cli.Command{
	Name:        "import",
	Usage:       "Reconcile a workbook into the database and make it the live mirror",
	ArgsUsage:   "<workbook.xlsx>",
	Description: "Writes MIRROR_PATH directly. While serve is running against the same file,\n" +
		"import through POST /api/import/excel instead so writes stay serialized.",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("workbook path is required")
		}

		doc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

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

		m, err := newMirror(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}

		summary, err := m.Import(ctx, doc, mirror.Stores{
			Donors:   store.NewDonorRepository(pool),
			Patients: store.NewPatientRepository(pool),
		})
		if err != nil {
			return err
		}

		pp.Println(summary)

		return nil
	},
}
