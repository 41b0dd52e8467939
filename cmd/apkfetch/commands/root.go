package commands

import (
	"context"

	"apkfetch/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	dumpHttp   *string
)

// tel is set by ExecuteContext before any command runs.
var tel telemetry.API = telemetry.SlogAPI{}

var rootCmd = &cobra.Command{
	Use:   "apkfetch",
	Short: "apkfetch scrapes play store metadata into a database and downloads apks.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file, merged with its .local. counterpart if present.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show debug logs.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "A directory to write every http exchange to, ex. <dev_state>/http.")
}

func ExecuteContext(ctx context.Context, api telemetry.API) error {
	tel = api
	return rootCmd.ExecuteContext(ctx)
}
