/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"
)

func castCmd() *cli.Command {
	return &cli.Command{
		Name:  "cast",
		Usage: "Look up a single cast",
		Description: `Fetches a single cast from the hub by author FID and cast hash and
prints the hub message as JSON.

Prompts for the FID and hash if they are not given as flags.`,
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "fid",
				Usage: "FID of the cast author",
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Cast hash, e.g. 0xabc...",
			},
			hubURLFlag(),
		},
		Action: func(ctx *cli.Context) error {
			fid := ctx.Uint64("fid")
			if fid == 0 {
				answer, err := prompt.New().Ask("FID:").Input("")
				if err != nil {
					return err
				}
				fid, err = strconv.ParseUint(answer, 10, 64)
				if err != nil {
					return errors.New("FID must be a number")
				}
			}

			hash := ctx.String("hash")
			if hash == "" {
				answer, err := prompt.New().Ask("Hash:").Input("0x")
				if err != nil {
					return err
				}
				hash = answer
			}

			_, client, err := hubClient(ctx)
			if err != nil {
				return err
			}

			msg, err := client.CastByID(ctx.Context, fid, hash)
			if err != nil {
				return fmt.Errorf("could not fetch cast: %w", err)
			}

			var out bytes.Buffer
			if err := json.Indent(&out, msg.Raw, "", "  "); err != nil {
				return fmt.Errorf("could not format cast: %w", err)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(os.Stdout)
			return err
		},
	}
}
