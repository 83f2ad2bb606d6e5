// Command screenctl generates, uploads, exports and verifies candidate files
// against a running screening server.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/okian/smarthire/internal/screenctl"
	"github.com/okian/smarthire/pkg/logger"
)

const (
	app       = "screenctl"
	envPrefix = "SCREENCTL"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Connection flags fall back to
// SCREENCTL_URL, SCREENCTL_TIMEOUT and SCREENCTL_VERBOSE.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "screenctl drives a running SmartHire screening server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat("console")); err != nil {
				return err
			}
			if v.GetBool("verbose") {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flags := root.PersistentFlags()
	flags.String("url", screenctl.DefaultBaseURL, "base URL of the service")
	flags.Duration("timeout", screenctl.DefaultTimeout, "HTTP request timeout")
	flags.BoolP("verbose", "v", false, "verbose logging")
	for _, name := range []string{"url", "timeout", "verbose"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", name, err))
		}
	}

	root.AddCommand(
		newGenerateCmd(),
		newUploadCmd(v),
		newExportCmd(v),
		newVerifyCmd(v),
	)
	return root
}

func clientConfig(v *viper.Viper) screenctl.Config {
	return screenctl.Config{
		BaseURL: v.GetString("url"),
		Timeout: v.GetDuration("timeout"),
		Verbose: v.GetBool("verbose"),
	}
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
