package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/config"
)

// sampleCatalog is written on first init when no catalog exists yet.
var sampleCatalog = []catalog.Entry{
	{
		ID:             "linkedin-search-export",
		Description:    "Export the people listed in a LinkedIn search results page",
		Tags:           []string{"linkedin", "search", "export"},
		RequiredInputs: []byte(`"LinkedIn search URL"`),
	},
	{
		ID:             "linkedin-profile-scraper",
		Description:    "Scrape LinkedIn profiles for job title, company and location",
		Tags:           []string{"linkedin", "scrape", "profile"},
		RequiredInputs: []byte(`"list of LinkedIn profile URLs"`),
	},
	{
		ID:             "company-email-finder",
		Description:    "Find professional email addresses for people at a company",
		Tags:           []string{"email", "enrichment"},
		RequiredInputs: []byte(`{"company": "company name or domain", "names": "full names"}`),
	},
	{
		ID:          "email-verifier",
		Description: "Verify that email addresses are deliverable before outreach",
		Tags:        []string{"email", "verification"},
	},
	{
		ID:             "google-maps-extractor",
		Description:    "Extract local businesses with phone numbers and websites from Google Maps",
		Tags:           []string{"maps", "local", "phone"},
		RequiredInputs: []byte(`"search term and city"`),
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.phantom with a config, .env template and sample catalog",
	Long: `Initialize phantom at ~/.phantom/.

Writes phantom.yaml, a .env template selecting the offline local embedder,
and a sample phantoms.json catalog. Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.phantom directory ───────────────────────────────────────
	phantomDir, err := config.PhantomDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(phantomDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", phantomDir, err)
	}
	printOK("", fmt.Sprintf("Phantom directory ready: %s", phantomDir))

	// ── 2. Write phantom.yaml if missing ──────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── 3. .env template ──────────────────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Embeddings settings: %s", envPath))

	// ── 4. Sample catalog ─────────────────────────────────────────────────────
	if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
		if err := catalog.WriteFile(cfg.CatalogPath, sampleCatalog); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Sample catalog written: %s (%d phantoms)", cfg.CatalogPath, len(sampleCatalog)))
	} else {
		printSkip("", fmt.Sprintf("Catalog already exists: %s", cfg.CatalogPath))
	}

	fmt.Fprintln(stdout, "\n✓  phantom init complete. Run 'phantom search --index' to build the semantic index.")
	return nil
}
