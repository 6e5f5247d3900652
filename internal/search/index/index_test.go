package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/embeddings"
)

// stubProvider returns fixed vectors keyed by text.
type stubProvider struct {
	model   string
	dim     int
	vecs    map[string][]float32
	err     error
	batches [][]string
}

func (s *stubProvider) ModelID() string { return s.model }
func (s *stubProvider) Dim() int        { return s.dim }

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (s *stubProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.batches = append(s.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func entry(id, desc string, tags ...string) catalog.Entry {
	if tags == nil {
		tags = []string{}
	}
	return catalog.Entry{ID: id, Description: desc, Tags: tags, SearchText: catalog.SearchText(id, desc, tags)}
}

func fixture() ([]catalog.Entry, *stubProvider) {
	entries := []catalog.Entry{entry("a", "alpha"), entry("b", "beta"), entry("c", "gamma")}
	return entries, &stubProvider{
		model: "stub:v1",
		vecs: map[string][]float32{
			"a alpha": {0, 0},
			"b beta":  {1, 0},
			"c gamma": {3, 0},
			"near-b":  {1.2, 0},
			"origin":  {0, 0},
		},
	}
}

func TestSearch_ReturnsMinKN(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())
	require.Equal(t, 2, idx.Dim())

	for k := 1; k <= 5; k++ {
		res, err := idx.Search(context.Background(), prov, "near-b", k)
		require.NoError(t, err)
		want := k
		if want > 3 {
			want = 3
		}
		assert.Len(t, res, want, "k=%d", k)
	}
}

func TestSearch_OrderedByDistance(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), prov, "near-b", 3)
	require.NoError(t, err)
	ids := []string{res[0].Entry.ID, res[1].Entry.ID, res[2].Entry.ID}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
	}
	assert.InDelta(t, 0.04, res[0].Distance, 1e-6)
}

func TestSearch_ExactTextRanksFirst(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), prov, "c gamma", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "c", res[0].Entry.ID)
	assert.Equal(t, 0.0, res[0].Distance)
	assert.Equal(t, "gamma", res[0].Entry.Description)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	entries := []catalog.Entry{entry("z", "same"), entry("y", "same"), entry("x", "other")}
	prov := &stubProvider{model: "stub:v1", vecs: map[string][]float32{
		"z same":  {1, 1},
		"y same":  {1, 1},
		"x other": {1, 1},
		"q":       {0, 0},
	}}
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), prov, "q", 3)
	require.NoError(t, err)
	assert.Equal(t, "z", res[0].Entry.ID)
	assert.Equal(t, "y", res[1].Entry.ID)
	assert.Equal(t, "x", res[2].Entry.ID)
}

func TestSearch_Idempotent(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	first, err := idx.Search(context.Background(), prov, "near-b", 2)
	require.NoError(t, err)
	second, err := idx.Search(context.Background(), prov, "near-b", 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_InvalidArgument(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	for _, k := range []int{0, -1} {
		_, err := idx.Search(context.Background(), prov, "near-b", k)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	_, err = idx.Search(context.Background(), prov, "  ", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSearch_ModelMismatch(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	other := *prov
	other.model = "stub:v2"
	_, err = idx.Search(context.Background(), &other, "near-b", 1)
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestSearch_QueryDimMismatch(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	prov.vecs["bad"] = []float32{1, 2, 3}
	_, err = idx.Search(context.Background(), prov, "bad", 1)
	var ee *EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, ErrVectorLengthMismatch)
}

func TestBuild_Empty(t *testing.T) {
	prov := &stubProvider{model: "stub:v1"}
	idx, err := Build(context.Background(), prov, nil, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, prov.batches)

	for _, k := range []int{1, 10, 0, -1} {
		res, err := idx.Search(context.Background(), prov, "anything", k)
		require.NoError(t, err)
		assert.Empty(t, res)
	}
}

func TestBuild_DimensionMismatchIsFatal(t *testing.T) {
	entries, prov := fixture()
	prov.vecs["b beta"] = []float32{1, 0, 0}

	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	assert.Nil(t, idx)
	var ee *EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "b", ee.EntryID)
	assert.ErrorIs(t, err, ErrVectorLengthMismatch)
}

func TestBuild_ProviderDimIsEnforced(t *testing.T) {
	entries, prov := fixture()
	prov.dim = 3

	_, err := Build(context.Background(), prov, entries, BuildOptions{})
	var ee *EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "a", ee.EntryID)
}

func TestBuild_ProviderError(t *testing.T) {
	entries, prov := fixture()
	boom := errors.New("boom")
	prov.err = boom

	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	assert.Nil(t, idx)
	var ee *EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_SingleBatch(t *testing.T) {
	entries, prov := fixture()
	_, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, prov.batches, 1)
	assert.Equal(t, []string{"a alpha", "b beta", "c gamma"}, prov.batches[0])
}

func TestBuild_ReusesUnchangedVectors(t *testing.T) {
	entries, prov := fixture()
	prev, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	entries[1] = entry("b", "beta two")
	prov.vecs["b beta two"] = []float32{2, 0}
	prov.batches = nil

	idx, err := Build(context.Background(), prov, entries, BuildOptions{Previous: prev})
	require.NoError(t, err)
	require.Len(t, prov.batches, 1)
	assert.Equal(t, []string{"b beta two"}, prov.batches[0])

	res, err := idx.Search(context.Background(), prov, "near-b", 1)
	require.NoError(t, err)
	assert.Equal(t, "b", res[0].Entry.ID)
	assert.InDelta(t, 0.64, res[0].Distance, 1e-6)

	// A different model never reuses vectors.
	other := *prov
	other.model = "stub:v2"
	other.batches = nil
	_, err = Build(context.Background(), &other, entries, BuildOptions{Previous: prev})
	require.NoError(t, err)
	require.Len(t, other.batches, 1)
	assert.Len(t, other.batches[0], 3)
}

func TestBuild_Normalize(t *testing.T) {
	entries := []catalog.Entry{entry("a", "x"), entry("b", "y")}
	prov := &stubProvider{model: "stub:v1", vecs: map[string][]float32{
		"a x": {10, 0},
		"b y": {0, 0.5},
		"q":   {0, 3},
	}}
	idx, err := Build(context.Background(), prov, entries, BuildOptions{Normalize: true})
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), prov, "q", 2)
	require.NoError(t, err)
	assert.Equal(t, "b", res[0].Entry.ID)
	assert.InDelta(t, 0, res[0].Distance, 1e-9)
	assert.InDelta(t, 2, res[1].Distance, 1e-6)
}

func TestSearch_ConcurrentReaders(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := idx.Search(context.Background(), prov, "near-b", 1)
			if err == nil && res[0].Entry.ID != "b" {
				err = fmt.Errorf("unexpected first result %s", res[0].Entry.ID)
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSearch_LeadGenExample(t *testing.T) {
	entries := []catalog.Entry{
		entry("A", "Find company emails", "email"),
		entry("B", "Scrape LinkedIn profiles", "linkedin", "scrape"),
	}
	prov := embeddings.NewLocal(0)

	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), prov, "find email addresses for leads", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "A", res[0].Entry.ID)
}

func TestBuild_RecomputesStaleSearchText(t *testing.T) {
	entries, prov := fixture()
	prov.vecs["a changed"] = []float32{5, 0}

	// Edited after load; SearchText still says "a alpha".
	entries[0].Description = "changed"

	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, prov.batches, 1)
	assert.Equal(t, []string{"a changed", "b beta", "c gamma"}, prov.batches[0])
	assert.Equal(t, "a changed", idx.Entries()[0].SearchText)

	res, err := idx.Search(context.Background(), prov, "a changed", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", res[0].Entry.ID)
	assert.Zero(t, res[0].Distance)
}
