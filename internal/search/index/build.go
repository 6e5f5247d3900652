package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/metrics"
)

// BuildOptions controls index building.
type BuildOptions struct {
	// Normalize scales every vector to unit length before indexing.
	Normalize bool

	// Previous, when built with the same model and normalisation, lends its
	// vectors to entries whose search text is unchanged.
	Previous *Index
}

// Build embeds every entry and returns a queryable index.
//
// All missing vectors are requested in a single batch. Any provider failure,
// a short batch, or a vector whose dimension differs from the rest aborts the
// build with *EmbeddingError; no partial index is returned. Building over
// zero entries yields a valid empty index.
func Build(ctx context.Context, prov embeddings.Provider, entries []catalog.Entry, opts BuildOptions) (idx *Index, err error) {
	if prov == nil {
		return nil, errors.New("embeddings provider is required")
	}
	done := metrics.TimeOp("index_build")
	defer func() { done(err == nil) }()

	n := len(entries)
	texts := make([]string, n)
	hashes := make([]string, n)
	for i, e := range entries {
		// SearchText is derived; a caller-edited entry may carry a stale one.
		text := catalog.SearchText(e.ID, e.Description, e.Tags)
		texts[i] = text
		hashes[i] = catalog.TextHash(text)
	}

	reuse := reusableVectors(opts.Previous, prov.ModelID(), opts.Normalize)

	vecs := make([][]float32, n)
	var missing []int
	for i := range entries {
		if v, ok := reuse[hashes[i]]; ok {
			vecs[i] = v
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		batch := make([]string, len(missing))
		for j, i := range missing {
			batch[j] = texts[i]
		}
		embedded, err := embedBatch(ctx, prov, batch)
		if err != nil {
			return nil, err
		}
		for j, i := range missing {
			v := embedded[j]
			if opts.Normalize {
				v = NormalizeL2(v)
			}
			vecs[i] = v
		}
	}
	slog.Debug("index build", "entries", n, "embedded", len(missing), "reused", n-len(missing), "model", prov.ModelID())

	dim := prov.Dim()
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, &EmbeddingError{EntryID: entries[i].ID, Err: errors.New("empty vector")}
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return nil, &EmbeddingError{
				EntryID: entries[i].ID,
				Err:     fmt.Errorf("%w: got %d want %d", ErrVectorLengthMismatch, len(v), dim),
			}
		}
	}

	flat := make([]float32, 0, n*dim)
	for _, v := range vecs {
		flat = append(flat, v...)
	}
	own := make([]catalog.Entry, n)
	copy(own, entries)
	for i := range own {
		own[i].SearchText = texts[i]
	}

	return &Index{
		manifest: Manifest{
			IndexVersion: FormatVersion,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
			ModelID:      prov.ModelID(),
			Dim:          dim,
			Metric:       MetricL2Squared,
			Normalize:    opts.Normalize,
			VectorFile:   "vectors.f32",
			EntriesFile:  "entries.jsonl",
		},
		entries: own,
		hashes:  hashes,
		vectors: flat,
	}, nil
}

func embedBatch(ctx context.Context, prov embeddings.Provider, texts []string) (out [][]float32, err error) {
	done := metrics.TimeOp("embed_batch")
	defer func() { done(err == nil) }()

	out, err = prov.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(out) != len(texts) {
		return nil, &EmbeddingError{Err: fmt.Errorf("provider returned %d vectors for %d texts", len(out), len(texts))}
	}
	return out, nil
}

// reusableVectors maps text hash to vector for a previous index built with
// the same model and normalisation.
func reusableVectors(prev *Index, modelID string, normalize bool) map[string][]float32 {
	out := map[string][]float32{}
	if prev == nil || prev.manifest.ModelID != modelID || prev.manifest.Normalize != normalize {
		return out
	}
	for i, h := range prev.hashes {
		if h == "" {
			continue
		}
		v := make([]float32, prev.manifest.Dim)
		copy(v, prev.vector(i))
		out[h] = v
	}
	return out
}
