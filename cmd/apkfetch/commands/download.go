package commands

import (
	"fmt"

	"apkfetch/internal/service"

	"github.com/spf13/cobra"
)

var (
	downloadVersionCode *int64
	downloadOut         *string
)

func init() {
	downloadVersionCode = downloadCmd.Flags().Int64("version-code", 0, "The version to download, defaults to the latest.")
	downloadOut = downloadCmd.Flags().String("out", "", "The existing directory the apk is written to.")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <package> [--version-code <n>] [--out <dir>]",
	Short: "Downloads the apk of a package.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		session, err := newSession(ctx, cfg)
		if err != nil {
			return err
		}

		downloader := service.NewDownloader(
			service.NewCoreAPIs(service.WithCustomTelemetryAPI(tel)),
			session,
		)
		download, err := downloader.GetApk(ctx, args[0], service.DownloadOptions{
			VersionCode: *downloadVersionCode,
			OutDir:      *downloadOut,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d bytes)\n", download.Path, download.Size)
		return nil
	},
}
