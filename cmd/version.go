package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/search/index"
)

// Set via -ldflags at release time.
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show phantom version and build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	rows := [][2]string{
		{"Version", version},
		{"Commit", emptyAsNA(commit)},
		{"Build Date", emptyAsNA(buildDate)},
		{"Index Format", fmt.Sprintf("v%d", index.FormatVersion)},
		{"Go Version", runtime.Version()},
		{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
	}
	for _, r := range rows {
		fmt.Fprintf(stdout, "%-13s %s\n", r[0]+":", r[1])
	}
	return nil
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
