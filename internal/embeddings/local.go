package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultLocalDim is the bucket count of the local embedder.
const DefaultLocalDim = 512

// localProvider is an offline bag-of-words embedder. Tokens are case-folded,
// hashed with FNV-1a into dim buckets, and the count vector is L2-normalised.
// It needs no network and is fully deterministic.
type localProvider struct {
	dim int
}

// NewLocal returns the offline hashing embedder. dim <= 0 selects DefaultLocalDim.
func NewLocal(dim int) Provider {
	if dim <= 0 {
		dim = DefaultLocalDim
	}
	return &localProvider{dim: dim}
}

func (p *localProvider) ModelID() string { return fmt.Sprintf("local:hash-%d", p.dim) }

func (p *localProvider) Dim() int { return p.dim }

func (p *localProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, p.dim)
	for _, tok := range localTokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%uint32(p.dim)]++
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v, nil
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v, nil
}

func (p *localProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// localTokens splits text on anything that is not a letter or digit, after
// NFKC normalisation and case folding, and strips simple plurals so
// "emails" and "email" share a bucket.
func localTokens(text string) []string {
	text = cases.Fold().String(norm.NFKC.String(text))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		switch {
		case strings.HasSuffix(f, "sses"):
			f = strings.TrimSuffix(f, "es")
		case len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss"):
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}
