package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"apkfetch/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	ingestList         *string
	ingestDownload     *bool
	ingestOut          *string
	ingestCreateTables *bool
)

func init() {
	ingestList = ingestCmd.Flags().String("list", "", "A file of package names to ingest, one per line.")
	ingestDownload = ingestCmd.Flags().Bool("download", false, "Also download the latest apk of each package.")
	ingestOut = ingestCmd.Flags().String("out", "", "The existing directory apks are written to.")
	ingestCreateTables = ingestCmd.Flags().Bool("create-tables", false, "Create any missing tables before ingesting.")
	rootCmd.AddCommand(ingestCmd)
}

// readPackageList reads package names one per line, blank lines and lines
// starting with # are skipped.
func readPackageList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var packages []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		packages = append(packages, line)
	}
	return packages, scanner.Err()
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [packages...] [--list <file>] [--download] [--out <dir>]",
	Short: "Scrapes packages and stores their company, app, release and categories.",
	RunE: func(cmd *cobra.Command, args []string) error {
		packages := args
		if *ingestList != "" {
			listed, err := readPackageList(*ingestList)
			if err != nil {
				return fmt.Errorf("read package list: %w", err)
			}
			packages = append(packages, listed...)
		}
		if len(packages) == 0 {
			return fmt.Errorf("no packages given, pass them as arguments or with --list")
		}

		cfg, err := readConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, conn, err := openStore(ctx, cfg, *ingestCreateTables)
		if err != nil {
			return err
		}
		defer conn.Close()

		session, err := newSession(ctx, cfg)
		if err != nil {
			return err
		}

		public, err := newStorefront(cfg)
		if err != nil {
			return err
		}

		ingester := service.NewIngester(
			service.NewCoreAPIs(service.WithCustomTelemetryAPI(tel)),
			session,
			public,
			st,
		)
		results, ingestErr := ingester.IngestAll(ctx, packages, service.IngestOptions{
			Download: *ingestDownload,
			OutDir:   *ingestOut,
		})

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Package", "App", "Version", "Categories", "Apk"})
		for _, res := range results {
			apk := ""
			if res.Download != nil {
				apk = res.Download.Path
			}
			t.AppendRow(table.Row{
				res.Package,
				res.AppId,
				res.VersionCode,
				strings.Join(res.Categories, ", "),
				apk,
			})
		}
		t.AppendFooter(table.Row{"", "", "", "ingested", fmt.Sprintf("%d/%d", len(results), len(packages))})
		t.SetStyle(table.StyleRounded)
		t.Render()

		return ingestErr
	},
}
