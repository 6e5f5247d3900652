package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/importer"
)

var (
	flagImportSource   string
	flagImportExcludes []string
)

var importCmd = &cobra.Command{
	Use:   "import <catalog-file>",
	Short: "Merge phantoms from another JSON or YAML catalog",
	Long: `Merge the phantoms of another catalog file into the configured catalog.

New ids are added. Identical entries are skipped. An id that already exists
with different content is kept side by side as <id>.conflict-<source> so
nothing is overwritten; resolve these with 'phantom doctor fix' or by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportSource, "source", "", "Name used in conflict ids (default: file name)")
	importCmd.Flags().StringArrayVar(&flagImportExcludes, "exclude", nil, "Glob of phantom ids to skip (repeatable)")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src := args[0]
	source := flagImportSource
	if source == "" {
		base := filepath.Base(src)
		source = strings.TrimSuffix(base, filepath.Ext(base))
	}

	result, err := importer.ImportCatalog(src, cfg.CatalogPath, source, flagImportExcludes)
	if err != nil {
		return fmt.Errorf("import [%s]: %w", source, err)
	}

	printSection("Import")
	printBullet("Imported:")
	printOK(source, fmt.Sprintf("%d phantom(s) imported, %d skipped, %d excluded, %d conflict(s)",
		result.Imported, result.Skipped, result.Excluded, len(result.Conflicts)))

	if len(result.Conflicts) > 0 {
		fmt.Fprintf(stdout, "\n⚠  %d conflict(s) detected during import.\n", len(result.Conflicts))
		fmt.Fprintf(stdout, "   All versions have been preserved in %s.\n", cfg.CatalogPath)
		fmt.Fprintln(stdout, "   Please review and resolve the following entries:")
		for _, c := range result.Conflicts {
			fmt.Fprintf(stdout, "     - %s  ← conflicts with %s\n", c.Conflict, c.Original)
		}
	}
	if result.Imported > 0 || len(result.Conflicts) > 0 {
		fmt.Fprintln(stdout, "\nRun 'phantom search --index' to refresh the semantic index.")
	}
	return nil
}
