package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsy/ai"
	"newsy/config"
	"newsy/db"
	"newsy/digest"
	"newsy/email"
)

func digestCmd() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Send the digest email to all active subscribers",
		Description: `Runs one digest cycle: picks the day's topic via rotation, selects
articles with a per-source cap, summarizes any still missing a summary,
and sends the rendered digest to every active subscriber.

Articles are marked sent only after at least one delivery succeeded, so
a failed run leaves them eligible for the next one.`,
		Flags: []cli.Flag{
			databaseFlag(),
			configFlag(),
			geminiFlag(),
			&cli.StringFlag{
				Name:     "sendgrid-api-key",
				Usage:    "SendGrid API key",
				EnvVars:  []string{"NEWSY_SENDGRID_API_KEY"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "email-from",
				Usage:   "Sender address for digest emails",
				Value:   "newsletter@example.com",
				EnvVars: []string{"NEWSY_EMAIL_FROM"},
			},
			&cli.StringFlag{
				Name:    "app-url",
				Usage:   "Public base URL used in unsubscribe links",
				Value:   "https://example.com",
				EnvVars: []string{"NEWSY_APP_URL"},
			},
			&cli.IntFlag{
				Name:  "max-per-source",
				Usage: "Max articles per source in one digest (defaults to the config value)",
			},
			&cli.IntFlag{
				Name:  "cooldown-days",
				Usage: "Days before a topic can repeat (defaults to the config value)",
			},
			&cli.StringFlag{
				Name:  "test-recipient",
				Usage: "Send only to this address and skip the commit step",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Build the digest without sending or committing",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			maxPerSource := ctx.Int("max-per-source")
			if maxPerSource <= 0 {
				maxPerSource = cfg.Digest.MaxPerSource
			}
			cooldownDays := ctx.Int("cooldown-days")
			if cooldownDays <= 0 {
				cooldownDays = cfg.Digest.CooldownDays
			}

			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			cycle := digest.NewCycle(
				database,
				ai.NewClient(ctx.String("gemini-api-key")),
				email.NewClient(ctx.String("sendgrid-api-key"), ctx.String("email-from")),
				digest.RenderFuncs{
					SubjectFunc: email.Subject,
					RenderFunc:  email.Render,
				},
				digest.Options{
					MaxPerSource:  maxPerSource,
					CooldownDays:  cooldownDays,
					DryRun:        ctx.Bool("dry-run"),
					TestRecipient: ctx.String("test-recipient"),
					AppURL:        ctx.String("app-url"),
					Pace:          500 * time.Millisecond,
				},
			)

			result, err := cycle.Run(ctx.Context)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"state":    result.State,
				"topic":    result.Topic,
				"articles": result.Articles,
				"sent":     result.Sent,
				"failed":   result.Failed,
			}).Info("Digest cycle finished")

			if result.State == digest.Failed {
				return fmt.Errorf("digest failed: no subscriber received it")
			}
			return nil
		},
	}
}
