package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordSearch matches entries by case-insensitive keywords over id,
// description and tags. All query tokens must match (AND semantics).
// Results keep catalog order.
func KeywordSearch(entries []Entry, query string, limit int) []Entry {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []Entry{}
	}

	fold := cases.Fold()
	out := []Entry{}
	for _, e := range entries {
		blob := fold.String(strings.Join([]string{e.ID, e.Description, strings.Join(e.Tags, " ")}, "\n"))
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(blob, tok) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Tokenize splits q on whitespace and case-folds each token.
func Tokenize(q string) []string {
	parts := strings.Fields(q)
	if len(parts) == 0 {
		return nil
	}
	fold := cases.Fold()
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, fold.String(p))
	}
	return out
}
