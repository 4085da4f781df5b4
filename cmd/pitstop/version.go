package main

import (
	"fmt"

	"github.com/aretw0/pitstop"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pitstop",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pitstop version %s\n", pitstop.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
