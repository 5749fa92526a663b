package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/abhisek/spincoach/internal/scenario"
)

// version is stamped by release builds with
// -ldflags "-X github.com/abhisek/spincoach/cmd.version=v1.2.3".
var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and the scenario format it reads",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spincoach %s (scenario format up to v%d)\n",
			buildVersion(), scenario.SupportedMajor)
	},
}

// buildVersion prefers the stamped version, then the module version that
// go install records, then "(devel)".
func buildVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}
