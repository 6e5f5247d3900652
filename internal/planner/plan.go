// Package planner assembles lead-generation workflows from catalog phantoms,
// prepares their inputs and simulates their execution.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

// ErrDuplicateStep is returned when a phantom is added to a plan twice.
var ErrDuplicateStep = errors.New("phantom already in plan")

// Step is one phantom invocation in a plan.
type Step struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

// Plan is an ordered workflow for a goal.
type Plan struct {
	Goal  string `json:"goal"`
	Steps []Step `json:"steps"`

	store *catalog.Store
}

// NewPlan returns an empty plan whose steps are resolved against store.
func NewPlan(store *catalog.Store, goal string) *Plan {
	return &Plan{Goal: goal, Steps: []Step{}, store: store}
}

// AddStep appends the phantom id to the plan. Unknown ids fail with
// catalog.ErrNotFound and repeated ids with ErrDuplicateStep.
func (p *Plan) AddStep(id, rationale string) error {
	id = strings.TrimSpace(id)
	if p.Has(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, id)
	}
	e, err := p.store.Get(id)
	if err != nil {
		return err
	}
	p.Steps = append(p.Steps, Step{
		ID:          e.ID,
		Description: e.Description,
		Rationale:   strings.TrimSpace(rationale),
	})
	return nil
}

// Has reports whether id is already a step.
func (p *Plan) Has(id string) bool {
	for _, s := range p.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the step ids in order.
func (p *Plan) IDs() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.ID
	}
	return out
}

// Selector chooses which candidates become plan steps, in order. It is the
// seam for an external reasoning service; ids it returns that are not in the
// catalog are rejected by the planner.
type Selector interface {
	Select(ctx context.Context, goal string, candidates []index.Result) ([]Selection, error)
}

// Selection is one step chosen by a Selector.
type Selection struct {
	ID        string
	Rationale string
}

// RankSelector keeps the best-ranked candidates in rank order.
type RankSelector struct {
	MaxSteps int
}

// Select implements Selector.
func (r RankSelector) Select(_ context.Context, _ string, candidates []index.Result) ([]Selection, error) {
	n := len(candidates)
	if r.MaxSteps > 0 && n > r.MaxSteps {
		n = r.MaxSteps
	}
	out := make([]Selection, n)
	for i := 0; i < n; i++ {
		c := candidates[i]
		out[i] = Selection{
			ID:        c.Entry.ID,
			Rationale: fmt.Sprintf("rank %d for goal (distance %.4f)", i+1, c.Distance),
		}
	}
	return out, nil
}

// Planner proposes plans for a goal from the similarity index.
type Planner struct {
	Store      *catalog.Store
	Index      *index.Index
	Provider   embeddings.Provider
	Selector   Selector
	Candidates int
	MaxSteps   int
}

// CandidatesFor returns the ranked catalog entries for goal.
func (p *Planner) CandidatesFor(ctx context.Context, goal string) ([]index.Result, error) {
	k := p.Candidates
	if k <= 0 {
		k = 5
	}
	return p.Index.Search(ctx, p.Provider, goal, k)
}

// Propose searches candidates for goal and lets the selector build a plan.
// Selections that are unknown or repeated are skipped.
func (p *Planner) Propose(ctx context.Context, goal string) (*Plan, error) {
	candidates, err := p.CandidatesFor(ctx, goal)
	if err != nil {
		return nil, err
	}
	sel := p.Selector
	if sel == nil {
		sel = RankSelector{MaxSteps: p.MaxSteps}
	}
	picks, err := sel.Select(ctx, goal, candidates)
	if err != nil {
		return nil, fmt.Errorf("select plan steps: %w", err)
	}

	plan := NewPlan(p.Store, goal)
	for _, s := range picks {
		if err := plan.AddStep(s.ID, s.Rationale); err != nil {
			if errors.Is(err, ErrDuplicateStep) || errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
	}
	return plan, nil
}
