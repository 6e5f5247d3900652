package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/importer"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <phantom-id>",
	Short: "Show the catalog entry of a phantom",
	Long: `Display a formatted summary of a phantom in the catalog, including its
description, tags, declared inputs and whether the semantic index covers it.

Example:
  phantom inspect linkedin-profile-scraper`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	e, err := store.Get(args[0])
	if err != nil {
		return err
	}

	printSection(e.ID)
	fmt.Fprintf(stdout, "  Description:     %s\n", orDash(e.Description))
	fmt.Fprintf(stdout, "  Tags:            %s\n", orDash(strings.Join(e.Tags, ", ")))
	fmt.Fprintf(stdout, "  Required inputs: %s\n", orDash(e.RequiredInputsText()))
	if importer.IsConflictID(e.ID) {
		printWarn("", "unresolved import conflict (see 'phantom doctor')")
	}

	fmt.Fprintln(stdout, "\n[ Index ]")
	idx, dir, err := openIndex(commandContext(cmd), cfg)
	if err != nil {
		printMiss("", "no semantic index installed")
		return nil
	}
	for _, ie := range idx.Entries() {
		if ie.ID != e.ID {
			continue
		}
		if ie.SearchText != e.SearchText {
			printWarn("", fmt.Sprintf("indexed text is stale in %s (run 'phantom search --index')", dir))
		} else {
			printOK("", fmt.Sprintf("indexed with %s", idx.ModelID()))
		}
		return nil
	}
	printMiss("", fmt.Sprintf("not in index %s (run 'phantom search --index')", dir))
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
