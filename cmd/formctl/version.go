package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kinetic-data/form.report/internal/version"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formctl.",
	Long:  `Display version information including build details.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("formctl CLI\n")
		cmd.Printf("  Version: %s\n", version.Version)
		cmd.Printf("  Commit:  %s\n", version.GitSHA)
		cmd.Printf("  Built:   %s\n", version.BuildTime)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
