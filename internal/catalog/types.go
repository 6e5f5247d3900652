// Package catalog loads the static set of phantoms (automation units) that the
// planner can choose from and exposes them by id and as searchable text.
package catalog

import "encoding/json"

// Entry is one phantom in the catalog.
type Entry struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	// RequiredInputs describes what the phantom needs at execution time.
	// It is passed through verbatim and never interpreted.
	RequiredInputs json.RawMessage `json:"requiredInputs,omitempty"`

	// SearchText is derived from ID, Description and Tags on load.
	SearchText string `json:"-"`
}

// record is the on-disk shape of an entry. The legacy "inputs" key is
// accepted as an alias for "requiredInputs".
type record struct {
	ID             *string         `json:"id"`
	Description    string          `json:"description"`
	Tags           []string        `json:"tags"`
	RequiredInputs json.RawMessage `json:"requiredInputs"`
	Inputs         json.RawMessage `json:"inputs"`
}

func (r record) toEntry() Entry {
	e := Entry{
		Description: r.Description,
		Tags:        r.Tags,
	}
	if r.ID != nil {
		e.ID = *r.ID
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	switch {
	case len(r.RequiredInputs) > 0 && string(r.RequiredInputs) != "null":
		e.RequiredInputs = r.RequiredInputs
	case len(r.Inputs) > 0 && string(r.Inputs) != "null":
		e.RequiredInputs = r.Inputs
	}
	e.SearchText = SearchText(e.ID, e.Description, e.Tags)
	return e
}

// RequiredInputsText renders RequiredInputs for display. JSON strings are
// unquoted; anything else is shown as compact JSON.
func (e Entry) RequiredInputsText() string {
	if len(e.RequiredInputs) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.RequiredInputs, &s); err == nil {
		return s
	}
	return string(e.RequiredInputs)
}
