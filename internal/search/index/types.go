package index

import (
	"bytes"
	"encoding/json"

	"github.com/leadgen/phantom-cli/internal/catalog"
)

// MetricL2Squared is the only distance metric an index is built with.
const MetricL2Squared = "l2sq"

// FormatVersion is the on-disk layout version written to the manifest.
const FormatVersion = 1

// Manifest describes a semantic index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Metric       string `json:"metric"`
	Normalize    bool   `json:"normalize"`
	VectorFile   string `json:"vector_file"`
	EntriesFile  string `json:"entries_file"`
}

// entryRow represents one entry row in entries.jsonl.
type entryRow struct {
	catalog.Entry
	TextHash string `json:"text_hash"`
}

// Index is a fully built, immutable similarity index over catalog entries.
// Position i in entries corresponds to vectors[i*Dim:(i+1)*Dim].
// An Index is safe for concurrent use by multiple readers.
type Index struct {
	manifest Manifest
	entries  []catalog.Entry
	hashes   []string
	vectors  []float32
}

// Result is one ranked search hit.
type Result struct {
	Entry    catalog.Entry
	Distance float64
}

// Manifest returns the index manifest.
func (x *Index) Manifest() Manifest { return x.manifest }

// ModelID returns the identity of the embedding model the index was built with.
func (x *Index) ModelID() string { return x.manifest.ModelID }

// Dim returns the vector dimension (0 for an empty index built without a known dimension).
func (x *Index) Dim() int { return x.manifest.Dim }

// Len returns the number of indexed entries.
func (x *Index) Len() int { return len(x.entries) }

// Entries returns the indexed entries in insertion order. The slice is a copy.
func (x *Index) Entries() []catalog.Entry {
	out := make([]catalog.Entry, len(x.entries))
	copy(out, x.entries)
	return out
}

// Current reports whether x was built over exactly entries, in the same
// order, with their present search text and inputs. A stale index ranks
// phantoms the catalog no longer describes and must be rebuilt.
func (x *Index) Current(entries []catalog.Entry) bool {
	if len(entries) != len(x.entries) {
		return false
	}
	for i, e := range entries {
		have := x.entries[i]
		if have.ID != e.ID || !sameJSON(have.RequiredInputs, e.RequiredInputs) {
			return false
		}
		if x.hashes[i] != catalog.TextHash(catalog.SearchText(e.ID, e.Description, e.Tags)) {
			return false
		}
	}
	return true
}

// sameJSON compares raw JSON values ignoring insignificant whitespace.
func sameJSON(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

func (x *Index) vector(i int) []float32 {
	d := x.manifest.Dim
	return x.vectors[i*d : (i+1)*d]
}
