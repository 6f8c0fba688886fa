/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aicaster/config"
	"aicaster/feeds"
	"aicaster/preview"
	"aicaster/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// serveCmd represents the serve command
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the aicaster feed",
		Description: `Starts the aicaster HTTP server.

Serves the aggregated feed as JSON on /feed, single casts on /cast, author
profiles on /userProfile, link previews on /linkPreview and the rendered
feed page on /. Prometheus metrics are exposed on /metrics.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"AICASTER_PORT"},
			},
			&cli.StringFlag{
				Name:    "allow-origins",
				Value:   "*",
				Usage:   "Comma separated list of origins allowed to call the JSON endpoints",
				EnvVars: []string{"AICASTER_ALLOW_ORIGINS"},
			},
			hubURLFlag(),
		},
		Action: func(ctx *cli.Context) error {
			cfg, client, err := hubClient(ctx)
			if err != nil {
				return err
			}

			app := server.Server(&server.ServerConfig{
				Feed:         feeds.New(client, cfg.Channels),
				Hub:          client,
				Previewer:    preview.New(nil, config.PreviewTimeout),
				AllowOrigins: ctx.String("allow-origins"),
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-c
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.WithField("error", err).Error("Error shutting down server")
				}
			}()

			log.WithFields(log.Fields{
				"port":     ctx.Int("port"),
				"channels": len(cfg.Channels),
			}).Info("Starting server...")

			if err := app.Listen(fmt.Sprintf(":%d", ctx.Int("port"))); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}

			log.Info("Done!")
			return nil
		},
	}
}
