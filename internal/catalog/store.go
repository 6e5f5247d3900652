package catalog

import "fmt"

// Store is an immutable, id-addressable view over a loaded catalog.
type Store struct {
	path    string
	entries []Entry
	byID    map[string]int
}

// NewStore indexes entries by id. Duplicate or empty ids are rejected.
func NewStore(entries []Entry) (*Store, error) {
	s := &Store{
		entries: make([]Entry, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(s.entries, entries)
	for i, e := range s.entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d has empty id", i)
		}
		if _, ok := s.byID[e.ID]; ok {
			return nil, fmt.Errorf("duplicate id %q", e.ID)
		}
		s.byID[e.ID] = i
	}
	return s, nil
}

// Open loads the catalog at path and returns a Store over it.
func Open(path string) (*Store, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(entries)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	s.path = path
	return s, nil
}

// Path returns the source the store was opened from, if any.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns the entries in source order. The slice is a copy.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lookup returns the entry with the given id.
func (s *Store) Lookup(id string) (Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Get is Lookup with ErrNotFound for unknown ids.
func (s *Store) Get(id string) (Entry, error) {
	e, ok := s.Lookup(id)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}
