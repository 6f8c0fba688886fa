/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"aicaster/config"
	"aicaster/hub"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "aicaster",
		Usage: "A Farcaster feed for AI related channels",
		Description: `A small web front-end that shows casts posted to a fixed set of
		AI related Farcaster channels.

		aicaster reads the channels from a Farcaster hub's public REST API,
		enriches the casts with author profiles and link previews and serves
		them as JSON and as a rendered feed page.

		Flags can generally be set via environment variables, e.g.:

		--port => AICASTER_PORT=3000
		--hub-url => AICASTER_HUB_URL=https://nemes.farcaster.xyz:2281
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				EnvVars: []string{"AICASTER_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "log-json",
				Usage:   "Write logs as JSON",
				EnvVars: []string{"AICASTER_LOG_JSON"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)

			if ctx.Bool("log-json") {
				log.SetFormatter(&log.JSONFormatter{})
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			feedCmd(),
			castCmd(),
			previewCmd(),
			channelsCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func hubURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "hub-url",
		Usage:   "Farcaster hub base URL, defaults to the compiled-in hub",
		EnvVars: []string{"AICASTER_HUB_URL"},
	}
}

// hubClient loads the compiled-in config and builds a hub client, honouring
// the --hub-url override
func hubClient(ctx *cli.Context) (*config.Config, *hub.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	hubURL := cfg.HubURL
	if override := ctx.String("hub-url"); override != "" {
		hubURL = override
	}

	log.WithField("hub", hubURL).Debug("Using hub")
	return cfg, hub.NewClient(hubURL, nil), nil
}
