package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteFile writes entries to path in the format implied by its extension.
// The file is replaced via rename so readers never see a partial catalog.
func WriteFile(path string, entries []Entry) error {
	data, err := Marshal(entries, formatOf(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create catalog dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write catalog %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("cannot replace catalog %s: %w", path, err)
	}
	return nil
}

// Marshal encodes entries as a catalog document.
func Marshal(entries []Entry, format Format) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	if format != FormatYAML {
		return append(b, '\n'), nil
	}
	// Round-trip through a generic value so RequiredInputs keeps its shape.
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
