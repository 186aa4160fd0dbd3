package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the built-in service catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Service", "Base URL", "Endpoints", "Rate/s", "Timeout"})

		for _, cfg := range builtinConfigsWithOverrides() {
			t.AppendRow(table.Row{
				cfg.Name,
				cfg.BaseURL,
				len(cfg.Endpoints),
				cfg.RatePerSecond,
				cfg.Timeout,
			})
		}

		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
