package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okian/smarthire/internal/screenctl"
	"github.com/okian/smarthire/pkg/logger"
)

func newUploadCmd(v *viper.Viper) *cobra.Command {
	var (
		file     string
		position string
	)
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a candidate CSV for a position and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer func() { _ = f.Close() }()

			ctx := cmd.Context()
			logger.Get().Debug(ctx, "uploading file",
				logger.String("file", file),
				logger.String("position", position),
			)
			res, err := screenctl.NewClient(clientConfig(v)).Upload(ctx, filepath.Base(file), position, f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to upload (required)")
	cmd.Flags().StringVarP(&position, "position", "p", "", "position title to score against (required)")
	markRequired(cmd, "file", "position")
	return cmd
}
