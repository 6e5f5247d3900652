package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/embeddings"
	"github.com/leadgen/phantom-cli/internal/search/index"
)

func leadGenStore(t *testing.T) *catalog.Store {
	t.Helper()
	entries, err := catalog.Parse([]byte(`[
  {"id": "A", "description": "Find company emails", "tags": ["email"], "requiredInputs": "company domain"},
  {"id": "B", "description": "Scrape LinkedIn profiles", "tags": ["linkedin", "scrape"]},
  {"id": "C", "description": "Enrich leads with phone numbers", "tags": ["phone", "enrich"]}
]`), catalog.FormatJSON)
	require.NoError(t, err)
	store, err := catalog.NewStore(entries)
	require.NoError(t, err)
	return store
}

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	store := leadGenStore(t)
	prov := embeddings.NewLocal(0)
	idx, err := index.Build(context.Background(), prov, store.Entries(), index.BuildOptions{})
	require.NoError(t, err)
	return &Planner{Store: store, Index: idx, Provider: prov, Candidates: 3}
}

func TestPlan_AddStep(t *testing.T) {
	p := NewPlan(leadGenStore(t), "get leads")

	require.NoError(t, p.AddStep("B", "collect profiles"))
	require.NoError(t, p.AddStep("A", ""))
	assert.Equal(t, []string{"B", "A"}, p.IDs())
	assert.Equal(t, "Scrape LinkedIn profiles", p.Steps[0].Description)
	assert.Equal(t, "collect profiles", p.Steps[0].Rationale)

	err := p.AddStep("B", "again")
	assert.True(t, errors.Is(err, ErrDuplicateStep))

	err = p.AddStep("nope", "")
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
	assert.Len(t, p.Steps, 2)
}

func TestPropose_RanksByGoal(t *testing.T) {
	pl := newPlanner(t)
	pl.MaxSteps = 1

	plan, err := pl.Propose(context.Background(), "find email addresses for leads")
	require.NoError(t, err)
	assert.Equal(t, "find email addresses for leads", plan.Goal)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "A", plan.Steps[0].ID)
	assert.Contains(t, plan.Steps[0].Rationale, "rank 1")
}

type fixedSelector []Selection

func (f fixedSelector) Select(context.Context, string, []index.Result) ([]Selection, error) {
	return f, nil
}

func TestPropose_SkipsUnknownAndRepeatedSelections(t *testing.T) {
	pl := newPlanner(t)
	pl.Selector = fixedSelector{
		{ID: "C", Rationale: "phones"},
		{ID: "ghost"},
		{ID: "C"},
		{ID: "A", Rationale: "emails"},
	}

	plan, err := pl.Propose(context.Background(), "enrich leads")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, plan.IDs())
}

func TestPropose_InvalidGoal(t *testing.T) {
	pl := newPlanner(t)
	_, err := pl.Propose(context.Background(), "   ")
	assert.True(t, errors.Is(err, index.ErrInvalidArgument))
}

func TestPrepareInputs(t *testing.T) {
	store := leadGenStore(t)
	p := NewPlan(store, "get leads")
	require.NoError(t, p.AddStep("A", ""))
	require.NoError(t, p.AddStep("B", ""))

	inputs := PrepareInputs(p, map[string]string{"A": "acme.com", "zzz": "ignored"})
	require.Len(t, inputs, 2)
	assert.Equal(t, StepInput{
		PhantomID:      "A",
		Goal:           "get leads",
		UserInput:      "acme.com",
		RequiredInputs: json.RawMessage(`"company domain"`),
	}, inputs[0])
	assert.Equal(t, "", inputs[1].UserInput)
	assert.Empty(t, inputs[1].RequiredInputs)

	assert.Empty(t, MissingInputs(store, inputs))
	inputs[0].UserInput = ""
	assert.Equal(t, []string{"A"}, MissingInputs(store, inputs))
}

func TestExecute_SimulatesEveryStep(t *testing.T) {
	store := leadGenStore(t)
	p := NewPlan(store, "get leads")
	require.NoError(t, p.AddStep("A", ""))
	require.NoError(t, p.AddStep("B", ""))

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	var seen []int
	x := &Executor{
		Now:    func() time.Time { return fixed },
		OnStep: func(i, total int, _ LogEntry) { seen = append(seen, i*10+total) },
	}

	run, err := x.Execute(context.Background(), p.Goal, PrepareInputs(p, map[string]string{"A": "acme.com"}))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "get leads", run.Goal)
	require.Len(t, run.Logs, 2)
	assert.Equal(t, []int{12, 22}, seen)

	first := run.Logs[0]
	assert.Equal(t, "A", first.PhantomID)
	assert.Equal(t, StatusSimulatedOK, first.Status)
	assert.Equal(t, "2026-03-01T11:00:00Z", first.TimestampISO)
	assert.Contains(t, first.Produced["result"], "Simulated result for A with input")
	assert.Contains(t, first.Produced["result"], `"acme.com"`)
}

func TestExecute_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inputs := []StepInput{{PhantomID: "A"}, {PhantomID: "B"}}
	x := &Executor{OnStep: func(int, int, LogEntry) { cancel() }}

	run, err := x.Execute(ctx, "g", inputs)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, run)
	assert.Len(t, run.Logs, 1)
}

func TestExecute_EmptyPlan(t *testing.T) {
	run, err := (&Executor{}).Execute(context.Background(), "g", nil)
	require.NoError(t, err)
	assert.Empty(t, run.Logs)
}
