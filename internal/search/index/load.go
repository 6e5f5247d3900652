package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/leadgen/phantom-cli/internal/catalog"
)

// Load reads an index from dir containing manifest + entries + vectors.
func Load(dir string) (*Index, error) {
	manifestPath := filepath.Join(dir, "index_manifest.json")
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.Dim < 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	if m.Metric != "" && m.Metric != MetricL2Squared {
		return nil, fmt.Errorf("unsupported metric in manifest: %s", m.Metric)
	}
	if m.ModelID == "" {
		return nil, fmt.Errorf("manifest %s has no model id", manifestPath)
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f32"
	}
	if m.EntriesFile == "" {
		m.EntriesFile = "entries.jsonl"
	}
	m.Metric = MetricL2Squared

	entries, hashes, err := loadEntries(filepath.Join(dir, m.EntriesFile))
	if err != nil {
		return nil, err
	}
	if m.Dim == 0 && len(entries) > 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), len(entries), m.Dim)
	if err != nil {
		return nil, err
	}

	return &Index{manifest: m, entries: entries, hashes: hashes, vectors: vectors}, nil
}

func loadEntries(path string) ([]catalog.Entry, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open entries file %s: %w", path, err)
	}
	defer f.Close()

	var (
		entries []catalog.Entry
		hashes  []string
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row entryRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, nil, fmt.Errorf("invalid entries JSONL %s: %w", path, err)
		}
		e := row.Entry
		if e.Tags == nil {
			e.Tags = []string{}
		}
		e.SearchText = catalog.SearchText(e.ID, e.Description, e.Tags)
		entries = append(entries, e)
		hashes = append(hashes, row.TextHash)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("cannot read entries file %s: %w", path, err)
	}
	return entries, hashes, nil
}

func loadVectors(path string, nEntries, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	if st.Size()%4 != 0 {
		return nil, fmt.Errorf("vector file size is not multiple of 4 bytes: %d", st.Size())
	}

	expected := int64(nEntries * dim * 4)
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (entries=%d dim=%d)", st.Size(), expected, nEntries, dim)
	}

	out := make([]float32, nEntries*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}
