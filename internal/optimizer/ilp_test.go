package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

// knapsack: maximize 5a + 4b + 3c with 2a + 3b + c <= 5. The relaxation is
// fractional at the root, so the search has to branch.
func knapsack() *Model {
	m := &Model{}
	a := m.addVar(5)
	b := m.addVar(4)
	c := m.addVar(3)
	m.addRow("weight", map[int]float64{a: 2, b: 3, c: 1}, senseLE, 5)
	return m
}

func TestBranchAndBound_Knapsack(t *testing.T) {
	m := knapsack()
	x, err := NewBranchAndBound(0).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if got := m.Value(x); math.Abs(got-9) > 1e-9 {
		t.Fatalf("unexpected objective: got=%v want=9 (x=%v)", got, x)
	}
	if !x[0] || !x[1] || x[2] {
		t.Fatalf("unexpected assignment: %v", x)
	}
}

func TestBranchAndBound_EqualityAndCover(t *testing.T) {
	// Pick exactly two of four, at least one of the last two.
	m := &Model{}
	vars := []int{m.addVar(9), m.addVar(8), m.addVar(2), m.addVar(1)}
	m.addRow("pick", map[int]float64{vars[0]: 1, vars[1]: 1, vars[2]: 1, vars[3]: 1}, senseEQ, 2)
	m.addRow("cover", map[int]float64{vars[2]: 1, vars[3]: 1}, senseGE, 1)

	x, err := NewBranchAndBound(0).Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if got := m.Value(x); got != 11 {
		t.Fatalf("unexpected objective: got=%v want=11 (x=%v)", got, x)
	}
	if err := m.Check(x); err != nil {
		t.Fatalf("assignment violates model: %v", err)
	}
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	m := &Model{}
	a := m.addVar(1)
	b := m.addVar(1)
	m.addRow("too many", map[int]float64{a: 1, b: 1}, senseEQ, 3)

	_, err := NewBranchAndBound(0).Solve(context.Background(), m)
	if !errors.Is(err, selection.ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestBranchAndBound_NodeLimit(t *testing.T) {
	_, err := NewBranchAndBound(1).Solve(context.Background(), knapsack())
	if !errors.Is(err, selection.ErrSolverTimeout) {
		t.Fatalf("expected ErrSolverTimeout, got %v", err)
	}
}

func TestBranchAndBound_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBranchAndBound(0).Solve(ctx, knapsack())
	if !errors.Is(err, selection.ErrSolverTimeout) {
		t.Fatalf("expected ErrSolverTimeout, got %v", err)
	}
}

// expiringContext reports no error for its first checks and a passed
// deadline after that, like a deadline that expires during a relaxation.
type expiringContext struct {
	context.Context
	checks int
	after  int
}

func (c *expiringContext) Err() error {
	c.checks++
	if c.checks > c.after {
		return context.DeadlineExceeded
	}
	return nil
}

func TestBranchAndBound_DeadlineDuringRelaxation(t *testing.T) {
	m := &Model{}
	a := m.addVar(2)
	b := m.addVar(3)
	m.addRow("both", map[int]float64{a: 1, b: 1}, senseEQ, 2)

	ctx := &expiringContext{Context: context.Background(), after: 1}
	_, err := NewBranchAndBound(0).Solve(ctx, m)
	if !errors.Is(err, selection.ErrSolverTimeout) {
		t.Fatalf("expected ErrSolverTimeout for a deadline that passed mid-node, got %v", err)
	}
}

func TestPropagate_FixesForcedVariables(t *testing.T) {
	m := &Model{}
	a := m.addVar(1)
	b := m.addVar(1)
	c := m.addVar(1)
	m.addRow("all of a and b", map[int]float64{a: 1, b: 1}, senseEQ, 2)
	m.addRow("c only without a", map[int]float64{a: 1, c: 1}, senseLE, 1)

	state := []int8{free, free, free}
	if err := propagate(m, state); err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if state[a] != fixed1 || state[b] != fixed1 || state[c] != fixed0 {
		t.Fatalf("unexpected state after propagation: %v", state)
	}
}

func TestActiveRows_MergesDuplicateEqualities(t *testing.T) {
	m := &Model{}
	a := m.addVar(1)
	b := m.addVar(1)
	c := m.addVar(1)
	m.addRow("first", map[int]float64{a: 1, b: 1}, senseEQ, 1)
	m.addRow("second", map[int]float64{a: 1, b: 1, c: 1}, senseEQ, 2)

	rows, err := activeRows(m, []int8{free, free, fixed1})
	if err != nil {
		t.Fatalf("active rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected duplicate rows to merge, got %d rows", len(rows))
	}

	m.addRow("conflict", map[int]float64{a: 2, b: 2}, senseEQ, 4)
	if _, err := activeRows(m, []int8{free, free, fixed1}); !errors.Is(err, errNodeInfeasible) {
		t.Fatalf("expected conflicting duplicate to be infeasible, got %v", err)
	}
}
