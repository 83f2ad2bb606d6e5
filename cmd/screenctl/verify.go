package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/screenctl"
)

func newVerifyCmd(v *viper.Viper) *cobra.Command {
	var (
		position string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that listed candidates are ranked by score with matching statuses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cands, err := screenctl.NewClient(clientConfig(v)).Candidates(cmd.Context(), position, "", limit)
			if err != nil {
				return err
			}

			r := screenctl.Verify(cands)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "checked %d candidates\n", r.Checked)
			for _, st := range model.Statuses() {
				fmt.Fprintf(out, "  %-12s %d\n", st, r.ByStatus[st])
			}
			if r.Overridden > 0 {
				fmt.Fprintf(out, "  %d status(es) set by hand\n", r.Overridden)
			}
			for _, issue := range r.Issues {
				fmt.Fprintf(out, "  issue: %s\n", issue)
			}
			return r.Err()
		},
	}

	cmd.Flags().StringVarP(&position, "position", "p", "", "only candidates for this position")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "maximum candidates to check (0 = server maximum)")
	return cmd
}
