package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadgen/phantom-cli/internal/catalog"
	"github.com/leadgen/phantom-cli/internal/config"
	"github.com/leadgen/phantom-cli/internal/planner"
)

var (
	flagPlanYes        bool
	flagPlanInputs     []string
	flagPlanJSON       bool
	flagPlanSteps      int
	flagPlanCandidates int
)

var planCmd = &cobra.Command{
	Use:   "plan <goal>",
	Short: "Propose a workflow of phantoms for a goal and simulate it",
	Long: `Search the catalog for phantoms matching the goal, propose an ordered plan,
and after approval simulate each step. Nothing is sent to external services.

Example:
  phantom plan "find email addresses for SaaS founders" \
      --input company-email-finder=acme.com --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVarP(&flagPlanYes, "yes", "y", false, "Approve the proposed plan without prompting")
	planCmd.Flags().StringArrayVar(&flagPlanInputs, "input", nil, "User input for a step, as <phantom-id>=<value> (repeatable)")
	planCmd.Flags().BoolVar(&flagPlanJSON, "json", false, "Print the run record as JSON")
	planCmd.Flags().IntVar(&flagPlanSteps, "steps", 3, "Maximum number of steps to propose")
	planCmd.Flags().IntVar(&flagPlanCandidates, "candidates", 5, "Number of search candidates considered")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	goal := strings.Join(args, " ")

	inputs, err := parseStepInputs(flagPlanInputs)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	prov, err := loadProvider()
	if err != nil {
		return err
	}
	idx, _, err := ensureIndex(ctx, cfg, prov, store, true)
	if err != nil {
		return err
	}

	p := &planner.Planner{
		Store:      store,
		Index:      idx,
		Provider:   prov,
		Candidates: flagPlanCandidates,
		MaxSteps:   flagPlanSteps,
	}
	plan, err := p.Propose(ctx, goal)
	if err != nil {
		return err
	}
	if len(plan.Steps) == 0 {
		return fmt.Errorf("no phantoms found for goal %q", goal)
	}

	printSection("Proposed plan")
	for i, s := range plan.Steps {
		fmt.Fprintf(stdout, "  %d. %s\n     %s\n     (%s)\n", i+1, s.ID, s.Description, s.Rationale)
	}

	if !flagPlanYes {
		ok, err := confirm(cmd.InOrStdin(), "\nRun this plan? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			printSkip("", "plan not approved; nothing executed")
			return nil
		}
	}

	for id := range inputs {
		if !plan.Has(id) {
			printWarn(id, "input given for a phantom that is not in the plan; ignored")
		}
	}
	prepared := planner.PrepareInputs(plan, inputs)
	for _, id := range planner.MissingInputs(store, prepared) {
		e, _ := store.Lookup(id)
		printWarn(id, fmt.Sprintf("no input given (expects %s)", e.RequiredInputsText()))
	}

	printSection("Simulated run")
	x := &planner.Executor{
		OnStep: func(i, total int, entry planner.LogEntry) {
			printOK(entry.PhantomID, fmt.Sprintf("step %d/%d %s", i, total, entry.Status))
		},
	}
	run, err := x.Execute(ctx, plan.Goal, prepared)
	if err != nil {
		return err
	}

	logPath, err := saveRunLog(run)
	if err != nil {
		printWarn("", fmt.Sprintf("cannot save run log: %v", err))
	} else {
		printInfo("", fmt.Sprintf("run log: %s", logPath))
	}

	if flagPlanJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	for _, l := range run.Logs {
		fmt.Fprintf(stdout, "  %s  %s\n", l.TimestampISO, l.Produced["result"])
	}
	return nil
}

// parseStepInputs turns repeated "<id>=<value>" flags into a map.
func parseStepInputs(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		id, value, ok := strings.Cut(kv, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --input %q: expected <phantom-id>=<value>", kv)
		}
		out[id] = value
	}
	return out, nil
}

func confirm(r io.Reader, prompt string) (bool, error) {
	fmt.Fprint(stdout, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// saveRunLog writes run to ~/.phantom/runs/<run-id>.json.
func saveRunLog(run *planner.Run) (string, error) {
	dir, err := config.PhantomDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, run.ID+".json")
	return p, os.WriteFile(p, data, 0o644)
}
