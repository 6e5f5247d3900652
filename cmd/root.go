package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/config"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/logging"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

var (
	flagDebug   bool
	flagLogFile string
)

var rootCmd = &cobra.Command{
	Use:          "phantom",
	Short:        "Phantom CLI — find and plan lead-generation automations",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Phantom keeps a catalog of lead-generation automations ("phantoms"),
finds the right ones for a goal by semantic similarity, and assembles them
into a simulated workflow.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level := slog.LevelInfo
		if v, err := config.GetConfigValue("PHANTOM_LOG_LEVEL"); err == nil && v != "" {
			level = logging.ParseLevel(v)
		}
		if flagDebug {
			level = slog.LevelDebug
		}
		var w io.Writer = stderr
		if flagLogFile != "" {
			path, err := config.ExpandPath(flagLogFile)
			if err != nil {
				return err
			}
			fw, err := logging.FileWriter(path)
			if err != nil {
				return fmt.Errorf("cannot open log file %s: %w", path, err)
			}
			w = fw
		}
		logging.Setup(w, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to a rotated file instead of stderr")
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads phantom.yaml with a hint to run init when it is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'phantom init' first.", err)
	}
	return cfg, nil
}

// loadProvider builds the embedding provider from env and ~/.phantom/.env.
func loadProvider() (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(embCfg)
}

// openIndex loads the installed index for cfg.
func openIndex(ctx context.Context, cfg *config.Config) (*index.Index, string, error) {
	dir, err := cfg.EffectiveIndexDir()
	if err != nil {
		return nil, "", err
	}
	idx, err := index.Open(ctx, dir)
	if err != nil {
		return nil, dir, fmt.Errorf("no usable index in %s: %w\nRun 'phantom search --index' first.", dir, err)
	}
	return idx, dir, nil
}

// buildAndInstall embeds store into a new index, reusing vectors from the
// installed one unless force is set.
func buildAndInstall(ctx context.Context, cfg *config.Config, prov embeddings.Provider, store *catalog.Store, force bool) (*index.Index, string, error) {
	dir, err := cfg.EffectiveIndexDir()
	if err != nil {
		return nil, "", err
	}
	opts := index.BuildOptions{Normalize: cfg.Normalize}
	if !force {
		if prev, err := index.Open(ctx, dir); err == nil {
			opts.Previous = prev
		} else {
			slog.Debug("no previous index to reuse", "dir", dir, "err", err)
		}
	}
	idx, err := index.Build(ctx, prov, store.Entries(), opts)
	if err != nil {
		return nil, dir, fmt.Errorf("index build failed: %w", err)
	}
	if err := index.Install(ctx, idx, dir); err != nil {
		return nil, dir, fmt.Errorf("cannot install index: %w", err)
	}
	return idx, dir, nil
}

// ensureIndex returns an index that matches store and prov. A stale index
// (catalog edited, or built with another model) is rebuilt and installed,
// reusing unchanged vectors. A missing one is built only when buildMissing
// is set.
func ensureIndex(ctx context.Context, cfg *config.Config, prov embeddings.Provider, store *catalog.Store, buildMissing bool) (*index.Index, string, error) {
	idx, dir, err := openIndex(ctx, cfg)
	switch {
	case err != nil && !buildMissing:
		return nil, dir, err
	case err != nil:
		printInfo("", "no semantic index yet; building one")
	case idx.ModelID() != prov.ModelID():
		printInfo("", fmt.Sprintf("index was built with %s; rebuilding with %s", idx.ModelID(), prov.ModelID()))
	case !idx.Current(store.Entries()):
		printInfo("", "catalog changed since the index was built; rebuilding")
	default:
		return idx, dir, nil
	}
	return buildAndInstall(ctx, cfg, prov, store, false)
}
