package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the catalog at path and returns its entries in source order.
//
// The format is chosen by extension: .yaml/.yml is a YAML sequence, anything
// else a JSON array. Every failure is reported as *ConfigError.
func Load(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	entries, err := Parse(b, formatOf(path))
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return entries, nil
}

// Format is a catalog serialisation.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// An empty or null document is malformed in every format; an empty catalog
// is written as [].
var errEmptyDocument = errors.New("empty document")

// Parse decodes a catalog document and validates ids.
func Parse(data []byte, format Format) ([]Entry, error) {
	var raws []json.RawMessage
	switch format {
	case FormatYAML:
		var docs []any
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if docs == nil {
			return nil, errEmptyDocument
		}
		for i, d := range docs {
			b, err := json.Marshal(d)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			raws = append(raws, b)
		}
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, errEmptyDocument
		}
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if raws == nil {
			return nil, errEmptyDocument
		}
	}

	out := make([]Entry, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, raw := range raws {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		e := r.toEntry()
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if prev, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("record %d: duplicate id %q (first at record %d)", i, e.ID, prev)
		}
		seen[e.ID] = i
		out = append(out, e)
	}
	return out, nil
}
