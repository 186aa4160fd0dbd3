package main

import (
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints [service]",
	Short: "Show the endpoint catalog of a service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := serviceArg(args)
		if err != nil {
			return err
		}
		cfg, err := serviceConfig(name)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(cfg.Endpoints))
		for epName := range cfg.Endpoints {
			names = append(names, epName)
		}
		sort.Strings(names)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Endpoint", "Method", "Path", "Cache", "Description"})

		for _, epName := range names {
			ep := cfg.Endpoints[epName]
			cache := "-"
			if ep.UseCache {
				cache = ep.CacheTTL.String()
			}
			t.AppendRow(table.Row{epName, ep.Method, ep.Path, cache, ep.Description})
		}

		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}
