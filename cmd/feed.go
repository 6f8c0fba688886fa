/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"aicaster/feeds"
	"aicaster/models"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func feedCmd() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Print the aggregated feed to the command line",
		Description: `Aggregates the configured channels once and prints the casts
from the recency window, newest first.

With --json every cast is printed as a JSON object on a single line. Use a
tool like jq to process the output.

Prints all other log messages to stderr.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print one JSON object per cast",
			},
			hubURLFlag(),
		},
		Action: func(ctx *cli.Context) error {
			// Keep stdout for the feed
			log.SetOutput(os.Stderr)

			cfg, client, err := hubClient(ctx)
			if err != nil {
				return err
			}

			casts, err := feeds.New(client, cfg.Channels).Casts(ctx.Context)
			if err != nil {
				return fmt.Errorf("could not aggregate feed: %w", err)
			}

			if ctx.Bool("json") {
				return printJSONLines(os.Stdout, casts)
			}
			printFeed(os.Stdout, casts)
			return nil
		},
	}
}

func printJSONLines(w io.Writer, casts []models.EnrichedCast) error {
	enc := json.NewEncoder(w)
	for _, cast := range casts {
		if err := enc.Encode(cast); err != nil {
			return err
		}
	}
	return nil
}

func printFeed(w io.Writer, casts []models.EnrichedCast) {
	if len(casts) == 0 {
		fmt.Fprintln(w, "No casts found in the recency window.")
		return
	}

	fmt.Fprintf(w, "\n=== Farcaster AI Feed ===\n\n")
	for _, cast := range casts {
		fmt.Fprintf(w, "%s (FID: %d) in %s\n", cast.DisplayName, cast.Fid, cast.ChannelTag)
		fmt.Fprintf(w, "Time: %s\n", cast.Timestamp)
		fmt.Fprintf(w, "Message: %s\n", cast.Text)
		fmt.Fprintf(w, "Cast Hash: %s\n", cast.Hash)
		if len(cast.Embeds) > 0 {
			fmt.Fprintln(w, "Embeds:")
			for _, embed := range cast.Embeds {
				fmt.Fprintf(w, "  - %s\n", describeEmbed(embed))
			}
		}
		fmt.Fprintln(w, strings.Repeat("-", 50))
	}
}

func describeEmbed(embed models.Embed) string {
	if embed.IsCast() {
		return fmt.Sprintf("cast %d/%s", embed.CastID.Fid, embed.CastID.Hash)
	}
	return lo.FromPtrOr(embed.URL, "(removed)")
}
