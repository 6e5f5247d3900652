package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/config"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/importer"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that phantom's config, catalog, embedding provider and semantic
index are consistent. Run this command when something seems wrong.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the phantom environment.

Currently fixes:
  - Unresolved import conflicts: removes all <id>.conflict-* entries from the catalog

Run 'phantom doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printSection("phantom doctor fix")

	fmt.Fprintln(stdout, "\n[ Unresolved conflicts ]")
	entries, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	kept, removed := importer.DropConflicts(entries)
	if len(removed) == 0 {
		printOK("", "no conflict entries found — nothing to fix")
		return nil
	}
	if err := catalog.WriteFile(cfg.CatalogPath, kept); err != nil {
		return err
	}
	for _, id := range removed {
		printOK("", fmt.Sprintf("removed %s", id))
	}
	fmt.Fprintf(stdout, "\n  ✓  %d conflict entr(ies) removed. Run 'phantom search --index' to refresh the index.\n", len(removed))
	return nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("phantom doctor")
	fmt.Fprintln(stdout)

	// ── Check 1: phantom.yaml ─────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ phantom.yaml ]")
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot load phantom.yaml: %v — run 'phantom init' first", loadErr)
	} else {
		printOK("", fmt.Sprintf("catalog_path: %s", cfg.CatalogPath))
	}
	fmt.Fprintln(stdout)

	// ── Check 2: catalog ──────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Catalog ]")
	var store *catalog.Store
	if loadErr == nil {
		var err error
		store, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			failD("%v", err)
		} else {
			printOK("", fmt.Sprintf("%d phantom(s) loaded", store.Len()))
		}
	} else {
		printWarn("", "skipped (phantom.yaml not loaded)")
	}
	fmt.Fprintln(stdout)

	// ── Check 3: embeddings provider ──────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Embeddings ]")
	var prov embeddings.Provider
	if p, err := loadProvider(); err != nil {
		failD("%v", err)
	} else {
		prov = p
		printOK("", fmt.Sprintf("provider model: %s", prov.ModelID()))
	}
	fmt.Fprintln(stdout)

	// ── Check 4: semantic index ───────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Semantic index ]")
	if loadErr == nil {
		problems := checkIndex(ctx, cfg, store, prov)
		for _, problem := range problems {
			failD("%s", problem)
		}
		if len(problems) == 0 {
			printOK("", "index matches catalog and provider")
		}
	} else {
		printWarn("", "skipped (phantom.yaml not loaded)")
	}
	fmt.Fprintln(stdout)

	// ── Check 5: unresolved import conflicts ──────────────────────────────────
	fmt.Fprintln(stdout, "[ Unresolved conflicts ]")
	if store != nil {
		var conflicts []string
		for _, e := range store.Entries() {
			if importer.IsConflictID(e.ID) {
				conflicts = append(conflicts, e.ID)
			}
		}
		if len(conflicts) == 0 {
			printOK("", "no unresolved conflict entries found")
		} else {
			for _, c := range conflicts {
				printWarn("", c)
			}
			fmt.Fprintf(stdout, "\n  ⚠  %d unresolved conflict entr(ies) found in catalog.\n", len(conflicts))
			fmt.Fprintln(stdout, "     Edit the catalog to keep the version you want,")
			fmt.Fprintln(stdout, "     or run 'phantom doctor fix' to drop all conflict entries.")
			allOK = false
		}
	} else {
		printSkip("", "skipped (catalog not loaded)")
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "===================")
	if allOK {
		fmt.Fprintln(stdout, "✓  All checks passed. Phantom is ready to use.")
	} else {
		fmt.Fprintln(stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// checkIndex reports why the installed index cannot serve the catalog with
// prov. An empty result means the index is usable and current.
func checkIndex(ctx context.Context, cfg *config.Config, store *catalog.Store, prov embeddings.Provider) []string {
	idx, dir, err := openIndex(ctx, cfg)
	if err != nil {
		return []string{fmt.Sprintf("no index in %s — run 'phantom search --index'", dir)}
	}
	var problems []string
	if prov != nil && idx.ModelID() != prov.ModelID() {
		problems = append(problems, fmt.Sprintf("%v: index=%s provider=%s — run 'phantom search --index'",
			index.ErrModelMismatch, idx.ModelID(), prov.ModelID()))
	}
	if store != nil {
		indexed := make(map[string]string, idx.Len())
		for _, e := range idx.Entries() {
			indexed[e.ID] = e.SearchText
		}
		stale := 0
		for _, e := range store.Entries() {
			if text, ok := indexed[e.ID]; !ok || text != e.SearchText {
				stale++
			}
		}
		if stale > 0 || !idx.Current(store.Entries()) {
			problems = append(problems, fmt.Sprintf("index is out of date (%d changed phantom(s), %d indexed vs %d in catalog) — run 'phantom search --index'",
				stale, idx.Len(), store.Len()))
		}
	}
	return problems
}
