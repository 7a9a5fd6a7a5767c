package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsy/config"
	"newsy/db"
	"newsy/feeds"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch new articles from the configured feeds",
		Description: `Fetches all configured RSS/Atom feeds, filters entries for AI
relevance and stores new articles in the database. Articles whose URL
is already stored are skipped.

Meant to run as a cron job a few times per day.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Max entries to take per feed (defaults to the config value)",
				EnvVars: []string{"NEWSY_FEED_LIMIT"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log what would be stored without writing to the database",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			registry := feeds.Merge(cfg.Sources.Primary, cfg.Sources.Secondary)
			log.WithField("sources", len(registry)).Info("Fetching feeds")

			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			limit := ctx.Int("limit")
			if limit <= 0 {
				limit = cfg.Digest.FeedLimit
			}

			ingestor := feeds.NewIngestor(
				feeds.NewFetcher(nil),
				database,
				cfg.Keywords,
				feeds.WithDryRun(ctx.Bool("dry-run")),
			)

			stats, err := ingestor.Run(ctx.Context, registry, limit)
			if err != nil {
				return err
			}

			total, err := database.CountArticles(ctx.Context)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"found": stats.Found,
				"added": stats.Added,
				"total": total,
			}).Info("Fetch complete")
			return nil
		},
	}
}
