package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "newsy",
		Usage: "An AI news digest for email subscribers",
		Description: `Newsy collects AI news from RSS and Atom feeds, classifies and
		summarizes the articles with a generative model, and mails a daily
		digest to subscribers.

		Each command maps to one scheduled job: fetch pulls new articles,
		topics labels them, digest picks and sends the day's stories, and
		cleanup prunes old rows.

		Flags can generally be set via environment variables, e.g.:

		--database => NEWSY_DATABASE=newsy.db
		--config => NEWSY_CONFIG=config/newsy.toml
		`,
		Commands: []*cli.Command{
			fetchCmd(),
			topicsCmd(),
			summarizeCmd(),
			digestCmd(),
			checkCmd(),
			cleanupCmd(),
			migrateCmd(),
			rollbackCmd(),
			subscribersCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "newsy.db",
		Usage:   "SQLite database file location",
		EnvVars: []string{"NEWSY_DATABASE"},
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config/newsy.toml",
		Usage:   "Path to feeds and digest configuration file",
		EnvVars: []string{"NEWSY_CONFIG"},
	}
}

func geminiFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "gemini-api-key",
		Usage:    "Gemini API key",
		EnvVars:  []string{"NEWSY_GEMINI_API_KEY"},
		Required: true,
	}
}
