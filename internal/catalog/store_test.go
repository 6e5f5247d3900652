package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lookup(t *testing.T) {
	p := writeCatalog(t, "phantoms.json", `[
  {"id": "A", "description": "Find company emails", "tags": ["email"]},
  {"id": "B", "description": "Scrape LinkedIn profiles", "tags": ["linkedin", "scrape"]}
]`)
	s, err := Open(p)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, p, s.Path())

	e, ok := s.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, "Scrape LinkedIn profiles", e.Description)

	_, ok = s.Lookup("Z")
	assert.False(t, ok)

	_, err = s.Get("Z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EntriesIsACopy(t *testing.T) {
	s, err := NewStore([]Entry{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)

	got := s.Entries()
	got[0].ID = "mutated"

	e, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", e.ID)
}

func TestNewStore_RejectsDuplicates(t *testing.T) {
	_, err := NewStore([]Entry{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err)
	_, err = NewStore([]Entry{{ID: ""}})
	assert.Error(t, err)
}

func TestKeywordSearch(t *testing.T) {
	entries := []Entry{
		{ID: "email-finder", Description: "Find company EMAILS", Tags: []string{"enrich"}},
		{ID: "linkedin-scraper", Description: "Scrape LinkedIn profiles", Tags: []string{"scrape"}},
		{ID: "email-sender", Description: "Send emails", Tags: []string{"outreach"}},
	}

	got := KeywordSearch(entries, "email", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "email-finder", got[0].ID)
	assert.Equal(t, "email-sender", got[1].ID)

	got = KeywordSearch(entries, "Emails company", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "email-finder", got[0].ID)

	assert.Len(t, KeywordSearch(entries, "email", 1), 1)
	assert.Empty(t, KeywordSearch(entries, "   ", 5))
}

func TestMarshal_YAMLRoundTrip(t *testing.T) {
	in := []Entry{{ID: "a", Description: "d", Tags: []string{"t"}, RequiredInputs: []byte(`{"k":"v"}`)}}
	b, err := Marshal(in, FormatYAML)
	require.NoError(t, err)

	out, err := Parse(b, FormatYAML)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a d t", out[0].SearchText)
	assert.JSONEq(t, `{"k":"v"}`, string(out[0].RequiredInputs))
}
