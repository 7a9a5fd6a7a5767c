package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"newsy/ai"
	"newsy/db"
)

// Delay between consecutive summarization calls.
const summarizePace = 500 * time.Millisecond

func summarizeCmd() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Summarize articles that lack a summary",
		Description: `Generates a summary and a short opinion for every stored article
without one, using the Gemini API.

Optional: the digest command summarizes its selection just in time, so
this batch job only warms the backlog.`,
		Flags: []cli.Flag{
			databaseFlag(),
			geminiFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Max articles to summarize in one run (0 = all)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log candidates without calling the API or updating the database",
			},
		},
		Action: func(ctx *cli.Context) error {
			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			articles, err := database.UnsummarizedArticles(ctx.Context, ctx.Int("limit"))
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				log.Info("No unsummarized articles")
				return nil
			}

			log.WithField("articles", len(articles)).Info("Summarizing articles")
			client := ai.NewClient(ctx.String("gemini-api-key"))

			summarized := 0
			for i, article := range articles {
				if ctx.Bool("dry-run") {
					log.WithFields(log.Fields{
						"id":    article.ID,
						"title": article.Title,
					}).Info("[dry run] Would summarize article")
					continue
				}

				if i > 0 {
					time.Sleep(summarizePace)
				}

				content := article.Content
				if content == "" {
					content = article.Title
				}

				summary, opinion, err := client.Analyze(ctx.Context, article.Title, content, article.URL)
				if err != nil {
					log.WithError(err).WithField("id", article.ID).Warn("Failed to summarize article")
					continue
				}

				if err := database.UpdateAnalysis(ctx.Context, article.ID, summary, opinion); err != nil {
					return err
				}
				summarized++
			}

			log.WithFields(log.Fields{
				"summarized": summarized,
				"candidates": len(articles),
			}).Info("Summarization complete")
			return nil
		},
	}
}
