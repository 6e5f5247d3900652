package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgen/phantom-cli/internal/catalog"
)

func TestWriteLoad_RoundTrip(t *testing.T) {
	entries, prov := fixture()
	entries[0].RequiredInputs = json.RawMessage(`{"domain":"string"}`)
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Write(dir, idx))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, idx.Manifest(), got.Manifest())
	assert.Equal(t, idx.Entries(), got.Entries())
	assert.Equal(t, idx.vectors, got.vectors)
	assert.Equal(t, idx.hashes, got.hashes)
	assert.JSONEq(t, `{"domain":"string"}`, string(got.Entries()[0].RequiredInputs))

	res, err := got.Search(context.Background(), prov, "near-b", 1)
	require.NoError(t, err)
	assert.Equal(t, "b", res[0].Entry.ID)
}

func TestWriteLoad_Empty(t *testing.T) {
	idx, err := Build(context.Background(), &stubProvider{model: "stub:v1"}, nil, BuildOptions{})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Write(dir, idx))
	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestLoad_RejectsTruncatedVectors(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Write(dir, idx))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors.f32"), make([]byte, 8), 0o644))

	_, err = Load(dir)
	assert.ErrorContains(t, err, "size mismatch")
}

func TestLoad_RequiresModelID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index_manifest.json"), []byte(`{"dim":2}`), 0o644))
	_, err := Load(dir)
	assert.ErrorContains(t, err, "no model id")
}

func TestInstallOpen(t *testing.T) {
	entries, prov := fixture()
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "index")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, Install(ctx, idx, dir))
	// Installing again replaces the previous index.
	require.NoError(t, Install(ctx, idx, dir))

	got, err := Open(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())

	_, err = os.Stat(dir + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicSwap(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "new")
	dest := filepath.Join(tmp, "cur")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "f"), []byte("old"), 0o644))

	require.NoError(t, AtomicSwap(src, dest))

	b, err := os.ReadFile(filepath.Join(dest, "f"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestVectorHelpers(t *testing.T) {
	d, err := SquaredL2([]float32{1, 2}, []float32{4, 6})
	require.NoError(t, err)
	assert.Equal(t, 25.0, d)

	_, err = SquaredL2([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrVectorLengthMismatch)

	n := NormalizeL2([]float32{3, 4})
	assert.InDelta(t, 0.6, n[0], 1e-6)
	assert.InDelta(t, 0.8, n[1], 1e-6)
	assert.Equal(t, []float32{0, 0}, NormalizeL2([]float32{0, 0}))
}

func TestCurrent(t *testing.T) {
	entries, prov := fixture()
	entries[0].RequiredInputs = json.RawMessage(`{"domain": "string"}`)
	idx, err := Build(context.Background(), prov, entries, BuildOptions{})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, Write(dir, idx))
	loaded, err := Load(dir)
	require.NoError(t, err)

	// Whitespace in inputs does not matter after a round trip.
	pretty := append([]catalog.Entry(nil), entries...)
	pretty[0].RequiredInputs = json.RawMessage("{\n  \"domain\": \"string\"\n}")
	assert.True(t, idx.Current(entries))
	assert.True(t, loaded.Current(pretty))

	edited := append([]catalog.Entry(nil), entries...)
	edited[1].Description = "beta two"
	assert.False(t, loaded.Current(edited))

	retagged := append([]catalog.Entry(nil), entries...)
	retagged[2].Tags = []string{"new"}
	assert.False(t, loaded.Current(retagged))

	inputs := append([]catalog.Entry(nil), entries...)
	inputs[0].RequiredInputs = json.RawMessage(`"domain"`)
	assert.False(t, loaded.Current(inputs))

	assert.False(t, loaded.Current(entries[:2]))
	assert.False(t, loaded.Current(append(entries, entry("d", "delta"))))
	assert.False(t, loaded.Current([]catalog.Entry{entries[1], entries[0], entries[2]}))
}
