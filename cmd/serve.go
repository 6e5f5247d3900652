package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/metrics"
	"github.com/leadgen/phantom-cli/internal/server"
)

var (
	flagServeAddr    string
	flagServeMetrics bool
	flagServeWatch   bool
	flagServeSteps   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and planning over HTTP",
	Long: `Start an HTTP server exposing the catalog, semantic search and plan
simulation as JSON endpoints.

With --watch the catalog file is watched and a new index is built and swapped
in whenever it changes; requests keep using the previous index until then.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default from phantom.yaml)")
	serveCmd.Flags().BoolVar(&flagServeMetrics, "metrics", false, "Expose Prometheus metrics at /metrics")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Rebuild the index when the catalog file changes")
	serveCmd.Flags().IntVar(&flagServeSteps, "steps", 3, "Maximum number of steps in proposed plans")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	prov, err := loadProvider()
	if err != nil {
		return err
	}

	idx, dir, err := ensureIndex(ctx, cfg, prov, store, true)
	if err != nil {
		return err
	}

	opts := server.Options{DefaultK: cfg.EffectiveSearchK(), MaxSteps: flagServeSteps}
	if flagServeMetrics {
		opts.Metrics = metrics.EnablePrometheus()
	}
	srv := server.New(prov, &server.State{Store: store, Index: idx}, opts)

	if flagServeWatch {
		w, err := catalog.NewWatcher(cfg.CatalogPath, 0)
		if err != nil {
			return fmt.Errorf("cannot watch catalog: %w", err)
		}
		defer w.Stop()
		go func() {
			if err := srv.WatchCatalog(ctx, w, cfg.CatalogPath, dir, cfg.Normalize); err != nil {
				slog.Error("catalog watcher stopped", "err", err)
			}
		}()
		printInfo("", fmt.Sprintf("watching %s", cfg.CatalogPath))
	}

	addr := flagServeAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	if addr == "" {
		addr = "127.0.0.1:8088"
	}
	printOK("", fmt.Sprintf("serving %d phantom(s) indexed with %s on http://%s", idx.Len(), idx.ModelID(), addr))
	return srv.ListenAndServe(ctx, addr)
}
