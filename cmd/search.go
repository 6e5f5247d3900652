package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/config"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

var (
	flagSearchIndex    bool
	flagSearchKeyword  bool
	flagSearchSemantic bool
	flagSearchK        int
	flagSearchForce    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search phantoms by semantic similarity or keyword",
	Long: `Rank catalog phantoms by how close their description is to the query.

Semantic search uses the index built by 'phantom search --index'. When the
index is missing or was built with another embedding model, search falls back
to keyword matching unless --semantic is given.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&flagSearchIndex, "index", false, "Build/update the semantic index (~/.phantom/index)")
	searchCmd.Flags().BoolVar(&flagSearchKeyword, "keyword", false, "Force keyword search only")
	searchCmd.Flags().BoolVar(&flagSearchSemantic, "semantic", false, "Force semantic search only (error if unavailable)")
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "Number of results to show (default from phantom.yaml)")
	searchCmd.Flags().BoolVar(&flagSearchForce, "force", false, "Re-embed every phantom instead of reusing unchanged vectors")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flagSearchIndex {
		return runSearchIndex(commandContext(cmd), cfg)
	}

	if len(args) == 0 {
		return cmd.Help()
	}
	query := strings.Join(args, " ")
	k := flagSearchK
	if !cmd.Flags().Changed("k") {
		k = cfg.EffectiveSearchK()
	}

	if flagSearchKeyword {
		return runSearchKeyword(cfg, query, k)
	}

	res, err := semanticSearch(commandContext(cmd), cfg, query, k)
	if err != nil {
		if flagSearchSemantic {
			return err
		}
		slog.Debug("semantic search unavailable, falling back to keyword", "err", err)
		return runSearchKeyword(cfg, query, k)
	}
	printSearchResults(stdout, query, "semantic", res)
	return nil
}

func runSearchKeyword(cfg *config.Config, query string, k int) error {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	hits := catalog.KeywordSearch(store.Entries(), query, k)
	res := make([]index.Result, len(hits))
	for i, e := range hits {
		res[i] = index.Result{Entry: e}
	}
	printSearchResults(stdout, query, "keyword", res)
	return nil
}

func semanticSearch(ctx context.Context, cfg *config.Config, query string, k int) ([]index.Result, error) {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	prov, err := loadProvider()
	if err != nil {
		return nil, err
	}
	idx, dir, err := ensureIndex(ctx, cfg, prov, store, false)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	res, err := idx.Search(ctx, prov, query, k)
	if err != nil {
		return nil, fmt.Errorf("%w (index dir %s)", err, dir)
	}
	return res, nil
}

func printSearchResults(w io.Writer, query, mode string, results []index.Result) {
	fmt.Fprintf(w, "\nphantom search %q (%s)\n\n", query, mode)
	fmt.Fprintf(w, "Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range results {
		dist := ""
		if mode == "semantic" {
			dist = fmt.Sprintf("[%.4f]", r.Distance)
		}
		fmt.Fprintf(tw, "  %d.\t%s\t%s\n", i+1, dist, r.Entry.ID)
		fmt.Fprintf(tw, "  - %s\n", strings.TrimSpace(r.Entry.Description))
	}
	_ = tw.Flush()
}

func runSearchIndex(ctx context.Context, cfg *config.Config) error {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	prov, err := loadProvider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	printInfo("", fmt.Sprintf("building semantic index of %d phantom(s) using %s", store.Len(), prov.ModelID()))
	idx, dir, err := buildAndInstall(ctx, cfg, prov, store, flagSearchForce)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("semantic index written: %s (%d entries, dim %d)", dir, idx.Len(), idx.Dim()))
	return nil
}
