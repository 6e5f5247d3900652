package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SearchText returns the text used for embeddings generation: the non-empty
// parts among id, description and space-joined tags, separated by single
// spaces and NFC-normalised.
func SearchText(id, description string, tags []string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{id, description, strings.Join(tags, " ")} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return norm.NFC.String(strings.Join(parts, " "))
}

// TextHash returns a sha256 hash (hex) of the search text.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
