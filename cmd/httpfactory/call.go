package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	httpfactory "github.com/rajindersingh041/http-factory"
	"github.com/rajindersingh041/http-factory/broker"
)

var (
	callPathParams map[string]string
	callQuery      map[string]string
	callHeaders    map[string]string
	callJSON       string
	callStats      bool
)

var callCmd = &cobra.Command{
	Use:   "call [service] <endpoint>",
	Short: "Call one endpoint and print the response",
	Example: `  httpfactory call upstox quote --query symbol=NSE_EQ\|INE002A01018
  httpfactory call upstox market_status --path segment=NSE_EQ
  httpfactory --service groww call sector_data --stats`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, endpoint, err := serviceEndpointArgs(args)
		if err != nil {
			return err
		}

		svc, err := buildService(name)
		if err != nil {
			return err
		}
		defer svc.Close()

		opts, err := callOptions()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		resp, err := svc.Call(ctx, endpoint, opts...)
		if err != nil {
			return err
		}

		printResponse(resp)
		if callStats {
			fmt.Println()
			printStats(svc.Stats())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringToStringVar(&callPathParams, "path", nil, "path parameters (k=v)")
	callCmd.Flags().StringToStringVar(&callQuery, "query", nil, "query parameters (k=v)")
	callCmd.Flags().StringToStringVar(&callHeaders, "header", nil, "extra headers (k=v)")
	callCmd.Flags().StringVar(&callJSON, "json", "", "JSON request body")
	callCmd.Flags().BoolVar(&callStats, "stats", false, "print client stats after the call")
}

// callOptions translates the call flags into broker call options.
func callOptions() ([]broker.CallOption, error) {
	var opts []broker.CallOption
	if len(callPathParams) > 0 {
		opts = append(opts, broker.WithPathParams(callPathParams))
	}
	if len(callQuery) > 0 {
		opts = append(opts, broker.WithQuery(callQuery))
	}
	if len(callHeaders) > 0 {
		opts = append(opts, broker.WithHeaders(callHeaders))
	}
	if callJSON != "" {
		var payload interface{}
		if err := json.Unmarshal([]byte(callJSON), &payload); err != nil {
			return nil, fmt.Errorf("invalid --json payload: %w", err)
		}
		opts = append(opts, broker.WithJSON(payload))
	}
	return opts, nil
}

// printResponse writes the status line and a pretty-printed payload.
func printResponse(resp *httpfactory.Response) {
	fmt.Printf("HTTP %d  %s\n\n", resp.StatusCode, resp.URL)

	switch data := resp.Data.(type) {
	case nil:
		fmt.Println("(empty body)")
	case string:
		fmt.Println(data)
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			fmt.Println(resp.Text())
			return
		}
		fmt.Println(string(out))
	}
}

func printStats(stats httpfactory.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Requests", "Errors", "Error Rate", "Req/min", "Cache Size", "Circuit"})
	t.AppendRow(table.Row{
		stats.RequestCount,
		stats.ErrorCount,
		fmt.Sprintf("%.1f%%", stats.ErrorRate*100),
		stats.RequestsPerMinute,
		stats.CacheSize,
		stats.CircuitState,
	})
	t.Render()
}
