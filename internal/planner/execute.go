package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leadgen/phantom-cli/internal/catalog"
)

// StatusSimulatedOK marks a step that was simulated successfully.
const StatusSimulatedOK = "simulated_ok"

// StepInput is the prepared input for one step.
type StepInput struct {
	PhantomID      string          `json:"phantom_id"`
	Goal           string          `json:"goal"`
	UserInput      string          `json:"user_input"`
	RequiredInputs json.RawMessage `json:"required_inputs,omitempty"`
}

// LogEntry records the outcome of one executed step.
type LogEntry struct {
	PhantomID    string            `json:"phantom_id"`
	Status       string            `json:"status"`
	Produced     map[string]string `json:"produced"`
	TimestampISO string            `json:"timestamp_iso"`
}

// Run is the record of one plan execution.
type Run struct {
	ID   string     `json:"id"`
	Goal string     `json:"goal"`
	Logs []LogEntry `json:"logs"`
}

// PrepareInputs pairs every step with the user's value for it. Steps without
// a value get an empty string.
func PrepareInputs(plan *Plan, userInputs map[string]string) []StepInput {
	out := make([]StepInput, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		in := StepInput{
			PhantomID: s.ID,
			Goal:      plan.Goal,
			UserInput: userInputs[s.ID],
		}
		if plan.store != nil {
			if e, ok := plan.store.Lookup(s.ID); ok {
				in.RequiredInputs = e.RequiredInputs
			}
		}
		out = append(out, in)
	}
	return out
}

// MissingInputs returns the ids of steps whose phantom declares required
// inputs but received no user value.
func MissingInputs(store *catalog.Store, inputs []StepInput) []string {
	var out []string
	for _, in := range inputs {
		if in.UserInput != "" {
			continue
		}
		if e, ok := store.Lookup(in.PhantomID); ok && len(e.RequiredInputs) > 0 {
			out = append(out, in.PhantomID)
		}
	}
	return out
}

// Executor simulates phantom runs. Nothing is dispatched to external services.
type Executor struct {
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
	// OnStep, when set, is called after each step completes.
	OnStep func(i, total int, entry LogEntry)
}

// Execute simulates every input in order. Cancellation stops between steps
// and returns the partial run alongside ctx.Err().
func (x *Executor) Execute(ctx context.Context, goal string, inputs []StepInput) (*Run, error) {
	now := x.Now
	if now == nil {
		now = time.Now
	}
	run := &Run{ID: uuid.NewString(), Goal: goal, Logs: []LogEntry{}}

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		slog.Debug("simulating phantom", "run", run.ID, "step", i+1, "total", len(inputs), "phantom", in.PhantomID)

		entry := LogEntry{
			PhantomID: in.PhantomID,
			Status:    StatusSimulatedOK,
			Produced: map[string]string{
				"result": fmt.Sprintf("Simulated result for %s with input {goal: %q, user_input: %q}", in.PhantomID, in.Goal, in.UserInput),
			},
			TimestampISO: now().UTC().Format(time.RFC3339),
		}
		run.Logs = append(run.Logs, entry)
		if x.OnStep != nil {
			x.OnStep(i+1, len(inputs), entry)
		}
	}
	slog.Info("run complete", "run", run.ID, "steps", len(run.Logs))
	return run, nil
}
