package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"newsy/config"
	"newsy/feeds"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check that all configured feeds fetch and parse",
		Description: `Fetches the primary URL of every configured source and reports
whether it parsed, how many entries it returned, or why it failed.

Useful after editing the feed lists. Exits non-zero if any feed fails.`,
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			registry := feeds.Merge(cfg.Sources.Primary, cfg.Sources.Secondary)
			fmt.Printf("Checking %d feeds...\n\n", len(registry))

			fetcher := feeds.NewFetcher(nil)
			ok, failed := 0, 0
			for _, src := range registry {
				entries, err := fetcher.Fetch(ctx.Context, src.PrimaryURL)
				switch {
				case errors.Is(err, feeds.ErrMalformed):
					fmt.Printf("  FAIL  %s\n        Parse error: %v\n        URL: %s\n", src.Name, err, src.PrimaryURL)
					failed++
				case err != nil:
					fmt.Printf("  FAIL  %s\n        Error: %v\n        URL: %s\n", src.Name, err, src.PrimaryURL)
					failed++
				default:
					fmt.Printf("  OK    %s: %d entries\n", src.Name, len(entries))
					ok++
				}
			}

			fmt.Printf("\nSummary: %d OK, %d failed\n", ok, failed)
			if failed > 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}
