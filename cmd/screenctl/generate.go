package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/smarthire/internal/screenctl"
)

func newGenerateCmd() *cobra.Command {
	var (
		opts screenctl.GenerateOptions
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic candidate CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			n, err := screenctl.GenerateCSV(w, opts)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, out)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Rows, "rows", "n", 100, "number of candidate rows")
	f.StringVarP(&opts.Position, "position", "p", "Backend Developer", "value of the position column")
	f.Uint64Var(&opts.Seed, "seed", 1, "random seed")
	f.Float64Var(&opts.DuplicateRate, "duplicates", 0, "share of rows repeating an earlier email")
	f.Float64Var(&opts.InvalidRate, "invalid", 0, "share of rows with a broken email")
	f.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
