// Package cli implements the symfetch command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/symfetch/symfetch/pkg/version"
)

var inputPath string

var rootCmd = &cobra.Command{
	Use:   "symfetch",
	Short: "Symfetch - fetch debug symbols for native modules",
	Long: `Fetch the debug symbol file for a native module.

symfetch reads the module's debug directory, decodes its CodeView record
(the referenced symbol file name plus a GUID/age pair), queries the
configured symbol-distribution service for the matching compressed
archive, and unpacks the symbol file next to the module.

The parsed identity is printed before any network access, so a failed
download can still be diagnosed against a known module.

Configuration is read from the config file (see 'symfetch --help' paths)
and SYMFETCH_* environment variables: server URL, download timeout,
log level, and whether to keep the downloaded archive.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFetch,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the module file (required)")
	_ = rootCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("symfetch version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
