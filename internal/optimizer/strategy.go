package optimizer

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

// Strategy picks a squad from a candidate table and starters from a squad.
type Strategy interface {
	Name() selection.Strategy
	SelectSquad(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, error)
	SelectLineup(ctx context.Context, squad []player.Candidate, rules selection.Rules) ([]int64, error)
}

// JointStrategy picks squad and starters in a single solve.
type JointStrategy interface {
	Strategy
	SelectJoint(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, []int64, error)
}

// Solver finds a maximizing binary assignment for a model.
type Solver interface {
	Solve(ctx context.Context, m *Model) ([]bool, error)
}

// ExactStrategy formulates selection as a 0/1 program and hands it to a
// Solver.
type ExactStrategy struct {
	solver      Solver
	benchWeight float64
}

var _ JointStrategy = (*ExactStrategy)(nil)

// NewExactStrategy builds an exact strategy. benchWeight scales the value of
// bench members in joint solves; 0 scores starters only.
func NewExactStrategy(solver Solver, benchWeight float64) *ExactStrategy {
	if benchWeight < 0 {
		benchWeight = 0
	}
	return &ExactStrategy{solver: solver, benchWeight: benchWeight}
}

func (s *ExactStrategy) Name() selection.Strategy {
	return selection.StrategyExact
}

func (s *ExactStrategy) SelectSquad(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, error) {
	pool := pruneCandidates(candidates, rules)
	x, err := s.solve(ctx, squadModel(pool, rules))
	if err != nil {
		return nil, crerr.Wrap(err, "solve squad model")
	}
	return picked(pool, x, 0), nil
}

func (s *ExactStrategy) SelectLineup(ctx context.Context, squad []player.Candidate, rules selection.Rules) ([]int64, error) {
	x, err := s.solve(ctx, lineupModel(squad, rules))
	if err != nil {
		return nil, crerr.Wrap(err, "solve lineup model")
	}
	return memberIDs(picked(squad, x, 0)), nil
}

func (s *ExactStrategy) SelectJoint(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, []int64, error) {
	pool := pruneCandidates(candidates, rules)
	m := jointModel(pool, rules, s.benchWeight)
	x, err := s.solve(ctx, m)
	if err != nil {
		return nil, nil, crerr.Wrap(err, "solve joint model")
	}
	return picked(pool, x, 0), memberIDs(picked(pool, x, len(pool))), nil
}

func (s *ExactStrategy) solve(ctx context.Context, m *Model) ([]bool, error) {
	if s.solver == nil {
		return nil, selection.ErrSolverUnavailable
	}
	x, err := s.solver.Solve(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(x) != m.NumVars() {
		return nil, crerr.Wrapf(selection.ErrSolverUnavailable, "solver returned %d values for %d variables", len(x), m.NumVars())
	}
	return x, nil
}

// picked returns candidates whose variable, offset into x, is set.
func picked(candidates []player.Candidate, x []bool, offset int) []player.Candidate {
	out := make([]player.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if x[offset+i] {
			out = append(out, c)
		}
	}
	return out
}

func memberIDs(candidates []player.Candidate) []int64 {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	return ids
}
