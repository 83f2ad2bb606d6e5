package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/screenctl"
)

func newExportCmd(v *viper.Viper) *cobra.Command {
	var (
		position string
		status   string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the candidate export CSV",
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

			n, err := screenctl.NewClient(clientConfig(v)).Export(cmd.Context(), w, position, model.Status(status))
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d candidates to %s\n", n, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&position, "position", "p", "", "only candidates for this position")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only candidates with this status")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
