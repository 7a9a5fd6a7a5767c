package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsy/ai"
	"newsy/db"
)

// Delay between consecutive classification calls to stay under the
// API rate limit.
const classifyPace = 300 * time.Millisecond

func topicsCmd() *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "Assign a topic to articles that lack one",
		Description: `Classifies every stored article without a topic into one of the
fixed topic labels using the Gemini API. Topics are assigned once and
never rewritten.

Run after fetch so new articles carry a topic before digest selection.`,
		Flags: []cli.Flag{
			databaseFlag(),
			geminiFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Max articles to classify in one run (0 = all)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log assignments without updating the database",
			},
		},
		Action: func(ctx *cli.Context) error {
			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			articles, err := database.ArticlesWithoutTopic(ctx.Context, ctx.Int("limit"))
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				log.Info("No articles without topic")
				return nil
			}

			log.WithField("articles", len(articles)).Info("Assigning topics")
			client := ai.NewClient(ctx.String("gemini-api-key"))

			assigned := 0
			for i, article := range articles {
				if i > 0 {
					time.Sleep(classifyPace)
				}

				topic := client.Classify(ctx.Context, article.Title, article.Content)
				log.WithFields(log.Fields{
					"id":    article.ID,
					"title": article.Title,
					"topic": topic,
				}).Info("Classified article")

				if ctx.Bool("dry-run") {
					continue
				}
				if err := database.UpdateTopic(ctx.Context, article.ID, topic); err != nil {
					return err
				}
				assigned++
			}

			log.WithField("assigned", assigned).Info("Topic assignment complete")
			return nil
		},
	}
}
