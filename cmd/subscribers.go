package cmd

import (
	"fmt"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"

	"newsy/db"
)

func subscribersCmd() *cli.Command {
	return &cli.Command{
		Name:  "subscribers",
		Usage: "Manage digest subscribers",
		Description: `Lists and adds digest subscribers.

Signup, confirmation and unsubscription normally happen through the web
frontend; these commands exist for admin maintenance.`,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all active subscribers",
				Flags: []cli.Flag{databaseFlag()},
				Action: func(ctx *cli.Context) error {
					database, err := db.New(ctx.String("database"))
					if err != nil {
						return fmt.Errorf("failed to open database: %w", err)
					}
					defer database.Close()

					subs, err := database.ActiveSubscribers(ctx.Context)
					if err != nil {
						return err
					}
					for _, sub := range subs {
						fmt.Printf("%d\t%s\t%s\n", sub.ID, sub.Email, sub.SubscribedAt.Format("2006-01-02"))
					}
					fmt.Printf("\n%d active subscriber(s)\n", len(subs))
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Add a pre-confirmed subscriber",
				Flags: []cli.Flag{databaseFlag()},
				Action: func(ctx *cli.Context) error {
					address, err := prompt.New().Ask("Email:").Input("name@example.com")
					if err != nil {
						return err
					}

					database, err := db.New(ctx.String("database"))
					if err != nil {
						return fmt.Errorf("failed to open database: %w", err)
					}
					defer database.Close()

					sub, err := database.AddSubscriber(ctx.Context, address, true)
					if err != nil {
						return fmt.Errorf("failed to add subscriber: %w", err)
					}
					fmt.Println("Added subscriber", sub.Email)
					return nil
				},
			},
		},
	}
}
