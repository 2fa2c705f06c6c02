// specscan scans a C# corpus for [SpecOption] and [SpecCapability]
// attribute markers and generates the JS catalogs the benefit form wizard
// renders from.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "specscan",
	Short:        "Extract spec markers from C# sources into JS catalogs",
	Long:         `specscan compiles [SpecOption] and [SpecCapability] attribute markers into two deterministic catalogs (code-options.js, code-capabilities.js) plus preview and coverage reports.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(extractCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
