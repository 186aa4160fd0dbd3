package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [service]",
	Short: "Probe a service and report its health",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := serviceArg(args)
		if err != nil {
			return err
		}

		svc, err := buildService(name)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		status := svc.Health(ctx)

		fmt.Printf("service:  %s\n", name)
		fmt.Printf("status:   %s\n", status.Status)
		fmt.Printf("latency:  %s\n", status.Latency)
		fmt.Printf("circuit:  %s\n", status.CircuitState)
		if status.Error != "" {
			fmt.Printf("error:    %s\n", status.Error)
		}

		if !status.Healthy {
			return fmt.Errorf("service %s is unhealthy", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
