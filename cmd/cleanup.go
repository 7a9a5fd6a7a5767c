package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsy/config"
	"newsy/db"
)

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete old articles from the database",
		Description: `Deletes articles fetched longer ago than the retention window.

Can be run as a cron job to keep the database size down.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
			&cli.IntFlag{
				Name:  "days",
				Usage: "Retention window in days (defaults to the config value)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report how many articles would be deleted without deleting",
			},
		},
		Action: func(ctx *cli.Context) error {
			days := ctx.Int("days")
			if days <= 0 {
				cfg, err := config.LoadConfig(ctx.String("config"))
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				days = cfg.Digest.RetentionDays
			}

			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			cutoff := time.Now().UTC().AddDate(0, 0, -days)

			if ctx.Bool("dry-run") {
				count, err := database.CountArticlesOlderThan(ctx.Context, cutoff)
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"days":  days,
					"count": count,
				}).Info("[dry run] Would delete old articles")
				return nil
			}

			deleted, err := database.DeleteArticlesOlderThan(ctx.Context, cutoff)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"days":    days,
				"deleted": deleted,
			}).Info("Cleanup complete")
			return nil
		},
	}
}
