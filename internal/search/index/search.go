package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/metrics"
)

// Search returns the k entries nearest to query, by ascending squared
// Euclidean distance. Ties keep insertion order. The result has
// min(k, Len()) items. An empty index answers every query with an empty
// result, whatever k is.
//
// prov must embed with the same model the index was built with; otherwise
// ErrModelMismatch is returned.
func (x *Index) Search(ctx context.Context, prov embeddings.Provider, query string, k int) (res []Result, err error) {
	if len(x.entries) == 0 {
		return []Result{}, nil
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidArgument)
	}
	if prov == nil || prov.ModelID() != x.manifest.ModelID {
		got := "<nil>"
		if prov != nil {
			got = prov.ModelID()
		}
		return nil, fmt.Errorf("%w: index=%s provider=%s", ErrModelMismatch, x.manifest.ModelID, got)
	}

	done := metrics.TimeOp("index_search")
	defer func() { done(err == nil) }()

	qv, err := prov.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(qv) != x.manifest.Dim {
		return nil, &EmbeddingError{Err: fmt.Errorf("%w: query got %d want %d", ErrVectorLengthMismatch, len(qv), x.manifest.Dim)}
	}
	if x.manifest.Normalize {
		qv = NormalizeL2(qv)
	}

	type scored struct {
		pos  int
		dist float64
	}
	all := make([]scored, len(x.entries))
	for i := range x.entries {
		d, err := SquaredL2(qv, x.vector(i))
		if err != nil {
			return nil, err
		}
		all[i] = scored{pos: i, dist: d}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].dist == all[j].dist {
			return all[i].pos < all[j].pos
		}
		return all[i].dist < all[j].dist
	})

	if k > len(all) {
		k = len(all)
	}
	res = make([]Result, k)
	for i := 0; i < k; i++ {
		res[i] = Result{Entry: x.entries[all[i].pos], Distance: all[i].dist}
	}
	return res, nil
}
