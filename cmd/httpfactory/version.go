package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpfactory "github.com/rajindersingh041/http-factory"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(httpfactory.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
