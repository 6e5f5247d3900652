package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	cfg.SearchK = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CatalogPath != filepath.Join(home, ".phantom", "phantoms.json") {
		t.Fatalf("unexpected catalog path: %q", got.CatalogPath)
	}
	if got.EffectiveSearchK() != 7 {
		t.Fatalf("unexpected search k: %d", got.EffectiveSearchK())
	}
}

func TestLoadFile_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p := filepath.Join(t.TempDir(), "phantom.yaml")
	body := "catalog_path: ~/catalog/phantoms.yaml\nindex_dir: ~/idx\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.CatalogPath != filepath.Join(home, "catalog", "phantoms.yaml") {
		t.Fatalf("catalog path not expanded: %q", cfg.CatalogPath)
	}
	dir, err := cfg.EffectiveIndexDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(home, "idx") {
		t.Fatalf("index dir not expanded: %q", dir)
	}
	if cfg.EffectiveSearchK() != 5 {
		t.Fatalf("expected default k 5, got %d", cfg.EffectiveSearchK())
	}
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "phantom.yaml")
	if err := os.WriteFile(p, []byte("catalog_path: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}
