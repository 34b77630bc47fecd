package bootstrap

import (
	"context"
	"testing"

	platformerrors "lens-server-go/internal/platform/errors"
)

func TestInitGraph_DependenciesAreOrdered(t *testing.T) {
	completed := map[string]struct{}{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				t.Errorf("step %s depends on %s which runs later or never", step.ID, dep)
			}
		}
		completed[step.ID] = struct{}{}
	}
}

func TestExecuteInitSteps_FailsOnUnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected error for unsatisfied dependency")
	}
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Errorf("expected bootstrap kind, got %v", err)
	}
}

func TestExecuteInitSteps_WrapsStepFailure(t *testing.T) {
	steps := []initStep{
		{
			ID:   "fails",
			Kind: platformerrors.KindConfig,
			Execute: func(context.Context, *appState) error {
				return context.DeadlineExceeded
			},
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected step failure to propagate")
	}
	if !platformerrors.IsKind(err, platformerrors.KindConfig) {
		t.Errorf("expected configured step kind, got %v", err)
	}
}

func TestExecuteInitSteps_RunsInOrder(t *testing.T) {
	var order []string
	record := func(id string) stepFn {
		return func(context.Context, *appState) error {
			order = append(order, id)
			return nil
		}
	}

	steps := []initStep{
		{ID: "a", Execute: record("a")},
		{ID: "b", DependsOn: []string{"a"}, Execute: record("b")},
		{ID: "c", DependsOn: []string{"a", "b"}, Execute: record("c")},
	}

	if err := executeInitSteps(context.Background(), steps, &appState{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("unexpected execution order: %v", order)
	}
}
