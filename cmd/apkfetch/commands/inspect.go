package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func optional(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <package>",
	Short: "Prints everything scraped from the public page of a package.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// only the storefront section is used, so a missing config is fine
		cfg, err := readConfig()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		client, err := newStorefront(cfg)
		if err != nil {
			return err
		}
		page, err := client.Page(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(client.PageUrl(args[0]))
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"name", page.Name},
			{"dev id", page.DevId},
			{"dev name", page.DevName},
			{"dev website", optional(page.DevWebsite)},
			{"dev privacy", optional(page.DevPrivacy)},
			{"dev email", optional(page.DevEmail)},
			{"published", page.PublishTimestamp},
			{"free", page.IsFree},
			{"in-app purchases", page.HasInAppPurchases},
			{"ads", page.HasAds},
			{"family", page.IsFamily},
			{"categories", strings.Join(page.Categories, ", ")},
			{"icon", page.IconUrl},
			{"installs", fmt.Sprintf("%d+", page.InstallsLowerBound)},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
