package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"lifelink/internal/matching"
	"lifelink/internal/mirror"
	"lifelink/internal/utils"

	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var matchCommand = &cli.Command{
	Name:  "match",
	Usage: "Find donors for a patient using only a workbook, no database",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "patient",
			Aliases:  []string{"p"},
			Usage:    "Patient id as it appears in the workbook",
			Required: true,
		},
		&cli.Float64Flag{
			Name:    "radius-km",
			Aliases: []string{"r"},
			Usage:   "Search radius in kilometers (defaults to DEFAULT_RADIUS_KM)",
		},
		&cli.StringFlag{
			Name:  "workbook",
			Usage: "Workbook to read (defaults to MIRROR_PATH)",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadEnvConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := logrus.StandardLogger()

		var snapshot *mirror.Snapshot
		if path := c.String("workbook"); path != "" {
			doc, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			snapshot, err = mirror.ParseSnapshot(doc)
			if err != nil {
				return err
			}
		} else {
			live := mirror.New(cfg.MirrorPath, logger, nil, nil)
			snapshot, err = live.Snapshot()
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", live.Path(), err)
			}
		}

		for _, rowErr := range snapshot.Errors {
			logger.WithField("sheet", rowErr.Sheet).WithField("row", rowErr.Row).Warn(rowErr.Message)
		}

		radiusKm := cfg.DefaultRadiusKm
		if c.IsSet("radius-km") {
			radiusKm = c.Float64("radius-km")
		}

		index := matching.NewMemoryIndex(snapshot.Donors...)
		logger.WithField("donors", index.Len()).Debug("donor index loaded")

		matcher := matching.NewMatcher(
			logger,
			snapshot,
			index,
			nil,
			time.Duration(cfg.MatchQueryTimeoutMS)*time.Millisecond,
		)

		matches, err := matcher.FindMatches(context.Background(), c.String("patient"), radiusKm*1000)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("no matching donors")
			return nil
		}

		for _, match := range matches {
			pp.Println(map[string]any{
				"id":         match.ID,
				"name":       match.Name,
				"bloodType":  match.BloodType,
				"phone":      match.Phone,
				"location":   match.Location.Name,
				"distanceKm": utils.RoundFloat64(match.DistanceKm(), 2),
			})
		}

		return nil
	},
}
