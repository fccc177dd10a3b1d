package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtushda/vlib/memory/safety"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "vlibctl %s\n", version)
		fmt.Fprintf(w, "  commit: %s\n", commit)
		fmt.Fprintf(w, "  built: %s\n", date)
		fmt.Fprintf(w, "  checked: %t\n", safety.CheckedBuild)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
