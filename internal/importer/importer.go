// Package importer merges phantoms from another catalog file into the
// configured catalog, applying exclude filtering and MD5-based conflict
// resolution.
package importer

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/leadgen/phantom-cli/internal/catalog"
)

// ConflictMarker separates an original id from the source name in the id of
// a stored conflicting entry.
const ConflictMarker = ".conflict-"

// ConflictPair records a conflict found during import.
type ConflictPair struct {
	Original string // id of the entry already in the catalog
	Conflict string // id under which the incoming version was stored
	Source   string // source name
}

// Result is returned by ImportCatalog and Merge.
type Result struct {
	Conflicts []ConflictPair
	Imported  int // entries newly added
	Skipped   int // identical duplicates skipped
	Excluded  int // entries dropped by exclude patterns
}

// ImportCatalog merges the catalog at srcPath into dstPath. A missing
// destination is treated as an empty catalog. source names the origin and is
// used to build conflict ids.
func ImportCatalog(srcPath, dstPath, source string, excludes []string) (*Result, error) {
	incoming, err := catalog.Load(srcPath)
	if err != nil {
		return nil, err
	}

	existing, err := catalog.Load(dstPath)
	if err != nil {
		var ce *catalog.ConfigError
		if !errors.As(err, &ce) || !errors.Is(ce.Err, fs.ErrNotExist) {
			return nil, err
		}
		existing = nil
	}

	merged, result := Merge(existing, incoming, source, excludes)
	if result.Imported == 0 && len(result.Conflicts) == 0 {
		return result, nil
	}
	if err := catalog.WriteFile(dstPath, merged); err != nil {
		return result, err
	}
	return result, nil
}

// Merge appends incoming entries to existing. Identical entries are skipped;
// entries whose id exists with different content are stored under
// "<id>.conflict-<source>" and reported. existing is never modified.
func Merge(existing, incoming []catalog.Entry, source string, excludes []string) ([]catalog.Entry, *Result) {
	result := &Result{}

	out := make([]catalog.Entry, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	pos := make(map[string]int, len(out))
	for i, e := range out {
		pos[e.ID] = i
	}

	for _, e := range incoming {
		if matchesExclude(e.ID, excludes) {
			result.Excluded++
			continue
		}

		i, ok := pos[e.ID]
		if !ok {
			pos[e.ID] = len(out)
			out = append(out, e)
			result.Imported++
			continue
		}

		// Already present; compare fingerprints.
		if entryMD5(out[i]) == entryMD5(e) {
			result.Skipped++
			continue
		}
		cid := conflictID(e.ID, source)
		if j, ok := pos[cid]; ok && entryMD5(out[j]) == entryMD5(e) {
			result.Skipped++
			continue
		}
		c := e
		c.ID = cid
		c.SearchText = catalog.SearchText(c.ID, c.Description, c.Tags)
		if j, ok := pos[cid]; ok {
			out[j] = c
		} else {
			pos[cid] = len(out)
			out = append(out, c)
		}
		result.Conflicts = append(result.Conflicts, ConflictPair{
			Original: e.ID,
			Conflict: cid,
			Source:   source,
		})
	}
	return out, result
}

// IsConflictID reports whether id names a stored conflicting entry.
func IsConflictID(id string) bool {
	return strings.Contains(id, ConflictMarker)
}

// DropConflicts returns entries without stored conflicts, plus the ids that
// were removed.
func DropConflicts(entries []catalog.Entry) ([]catalog.Entry, []string) {
	kept := make([]catalog.Entry, 0, len(entries))
	var removed []string
	for _, e := range entries {
		if IsConflictID(e.ID) {
			removed = append(removed, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	return kept, removed
}

// conflictID builds the id for an incoming conflicting entry.
//
//	linkedin-profile-scraper → linkedin-profile-scraper.conflict-partner
func conflictID(id, source string) string {
	if source == "" {
		source = "import"
	}
	return id + ConflictMarker + source
}

// matchesExclude reports whether id matches any of the given glob patterns.
func matchesExclude(id string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, id); matched {
			return true
		}
	}
	return false
}

// entryMD5 returns the hex-encoded MD5 digest of the fields that define an entry.
func entryMD5(e catalog.Entry) string {
	h := md5.New()
	b, _ := json.Marshal(struct {
		Description    string          `json:"description"`
		Tags           []string        `json:"tags"`
		RequiredInputs json.RawMessage `json:"requiredInputs,omitempty"`
	}{e.Description, e.Tags, e.RequiredInputs})
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}
