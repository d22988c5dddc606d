// Package cmd wires the chipvm command-line interface.
package cmd

import (
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// releaseVersion is reported when the binary was built outside module-aware
// tooling and carries no stamped version of its own.
const releaseVersion = "v0.1.0"

// rootCmd only dispatches; invoking chipvm bare prints usage. Version output
// comes from the built-in --version flag rather than a subcommand.
var rootCmd = &cobra.Command{
	Use:     "chipvm",
	Short:   "CHIP-8 virtual machine",
	Long:    "chipvm runs classic CHIP-8 ROMs in a desktop window.\nStart a game with `chipvm run path/to/rom`.",
	Version: buildVersion(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// buildVersion prefers the version the Go module system stamped into the
// binary, falling back to the release constant for plain source builds.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return releaseVersion
}

// Execute dispatches to the selected subcommand and turns any command error
// into a nonzero exit. Cobra has already printed the error by this point.
func Execute() {
	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
