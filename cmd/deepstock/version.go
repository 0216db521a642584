package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/deepstock"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of deepstock",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deepstock version %s\n", strings.TrimSpace(deepstock.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
