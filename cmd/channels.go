/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"aicaster/channels"
	"aicaster/config"

	"github.com/urfave/cli/v2"
)

func channelsCmd() *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "Inspect feed channels",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the channels the feed aggregates",
				Action: func(ctx *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return fmt.Errorf("failed to load config: %w", err)
					}

					fmt.Printf("Hub: %s\n\n", cfg.HubURL)
					for _, channel := range cfg.Channels {
						fmt.Printf("%-16s %s\n", channel.Tag, channel.URL)
					}
					return nil
				},
			},
			{
				Name:  "find",
				Usage: "Find AI related channels in a channel directory dump",
				Description: `Reads a hub channel directory dump and prints every channel whose
name or description mentions AI, LLMs, machine learning and the like.

The file is expected to look like {"result": {"channels": [...]}}.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Value:   "channels.json",
						Usage:   "Path to the channel directory dump",
					},
				},
				Action: func(ctx *cli.Context) error {
					found, err := channels.FindInFile(ctx.String("file"))
					if err != nil {
						return err
					}

					if len(found) == 0 {
						fmt.Println("No AI-related channels found.")
						return nil
					}

					fmt.Println("Found AI-related channels:")
					for _, channel := range found {
						fmt.Printf("\nName: %s\n", channel.Name)
						fmt.Printf("ID: %s\n", channel.ID)
						fmt.Printf("URL: %s\n", channel.URL)
						fmt.Printf("Description: %s\n", channel.Description)
					}
					return nil
				},
			},
		},
	}
}
