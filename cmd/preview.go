/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"aicaster/config"
	"aicaster/links"
	"aicaster/preview"

	"github.com/urfave/cli/v2"
)

func previewCmd() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print the link preview for a URL",
		ArgsUsage: "<url>",
		Description: `Fetches the page behind the URL and prints the OpenGraph based
preview the feed would show for it.`,
		Action: func(ctx *cli.Context) error {
			url := ctx.Args().First()
			if !links.Valid(url) {
				return errors.New("please specify an absolute http or https URL")
			}

			p := preview.New(nil, config.PreviewTimeout).Preview(ctx.Context, url)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}
