package optimizer

import (
	"context"
	"errors"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/panics"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
)

const DefaultSolveTimeout = 5 * time.Second

type SelectorConfig struct {
	// SolveTimeout bounds each exact solve.
	SolveTimeout time.Duration
	// Joint picks squad and starters in one exact solve when the exact
	// strategy supports it.
	Joint bool
}

// Selector runs the exact strategy first and falls back to the greedy one
// when the exact solver is unavailable, fails, panics or times out. Callers
// only see which strategy produced the result through Selection.Strategy.
type Selector struct {
	exact    Strategy
	fallback Strategy
	breaker  *Breaker
	cfg      SelectorConfig
	logger   *logging.Logger
}

// NewSelector builds a selector. A nil exact strategy always uses the
// fallback; a nil breaker never short-circuits the exact solver.
func NewSelector(exact, fallback Strategy, breaker *Breaker, cfg SelectorConfig, logger *logging.Logger) *Selector {
	if fallback == nil {
		fallback = NewGreedy()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SolveTimeout <= 0 {
		cfg.SolveTimeout = DefaultSolveTimeout
	}

	return &Selector{
		exact:    exact,
		fallback: fallback,
		breaker:  breaker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Select picks a squad and its starters from candidates.
//
// When the exact strategy is unavailable, times out or is skipped by the
// breaker, the greedy fallback answers alone. Greedy can strand a position
// on tight pools, so an ErrInfeasible seen while Strategy would have been
// greedy does not prove that no valid squad exists.
func (s *Selector) Select(ctx context.Context, candidates []player.Candidate, rules selection.Rules) (selection.Selection, error) {
	if err := precheck(candidates, rules); err != nil {
		return selection.Selection{}, err
	}

	joint, ok := s.exact.(JointStrategy)
	if !s.cfg.Joint || !ok {
		return s.selectInSteps(ctx, candidates, rules)
	}

	var (
		squad    []player.Candidate
		starters []int64
	)
	err := s.tryExact(ctx, "joint", func(ctx context.Context) error {
		var err error
		squad, starters, err = joint.SelectJoint(ctx, candidates, rules)
		if err != nil {
			return err
		}
		if err := selection.ValidateSquad(squad, rules); err != nil {
			return rejectedResult(err)
		}
		if err := checkStarters(squad, starters, rules); err != nil {
			return rejectedResult(err)
		}
		return nil
	})
	if err == nil {
		return selection.Assemble(squad, starters, joint.Name())
	}
	if err := s.fallbackAllowed(ctx, err); err != nil {
		return selection.Selection{}, err
	}

	squad, err = s.fallback.SelectSquad(ctx, candidates, rules)
	if err != nil {
		return selection.Selection{}, err
	}
	if err := selection.ValidateSquad(squad, rules); err != nil {
		return selection.Selection{}, err
	}
	starters, err = s.fallback.SelectLineup(ctx, squad, rules)
	if err != nil {
		return selection.Selection{}, err
	}
	if err := checkStarters(squad, starters, rules); err != nil {
		return selection.Selection{}, err
	}
	return selection.Assemble(squad, starters, s.fallback.Name())
}

func (s *Selector) selectInSteps(ctx context.Context, candidates []player.Candidate, rules selection.Rules) (selection.Selection, error) {
	squad, squadBy, err := s.selectSquad(ctx, candidates, rules)
	if err != nil {
		return selection.Selection{}, err
	}
	starters, lineupBy, err := s.selectLineup(ctx, squad, rules)
	if err != nil {
		return selection.Selection{}, err
	}

	strategy := squadBy
	if lineupBy != squadBy {
		strategy = s.fallback.Name()
	}
	return selection.Assemble(squad, starters, strategy)
}

// SelectSquad picks a squad only.
func (s *Selector) SelectSquad(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, selection.Strategy, error) {
	if err := precheck(candidates, rules); err != nil {
		return nil, "", err
	}
	return s.selectSquad(ctx, candidates, rules)
}

// SelectLineup picks starters from a squad that must already satisfy the
// quotas and club cap.
func (s *Selector) SelectLineup(ctx context.Context, squad []player.Candidate, rules selection.Rules) ([]int64, selection.Strategy, error) {
	if err := rules.Validate(); err != nil {
		return nil, "", err
	}
	if err := selection.ValidateSquad(squad, rules); err != nil {
		return nil, "", err
	}
	return s.selectLineup(ctx, squad, rules)
}

func (s *Selector) selectSquad(ctx context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, selection.Strategy, error) {
	var squad []player.Candidate
	err := s.tryExact(ctx, "squad", func(ctx context.Context) error {
		var err error
		squad, err = s.exact.SelectSquad(ctx, candidates, rules)
		if err != nil {
			return err
		}
		if err := selection.ValidateSquad(squad, rules); err != nil {
			return rejectedResult(err)
		}
		return nil
	})
	if err == nil {
		return squad, s.exact.Name(), nil
	}
	if err := s.fallbackAllowed(ctx, err); err != nil {
		return nil, "", err
	}

	squad, err = s.fallback.SelectSquad(ctx, candidates, rules)
	if err != nil {
		return nil, "", err
	}
	if err := selection.ValidateSquad(squad, rules); err != nil {
		return nil, "", err
	}
	return squad, s.fallback.Name(), nil
}

func (s *Selector) selectLineup(ctx context.Context, squad []player.Candidate, rules selection.Rules) ([]int64, selection.Strategy, error) {
	var starters []int64
	err := s.tryExact(ctx, "lineup", func(ctx context.Context) error {
		var err error
		starters, err = s.exact.SelectLineup(ctx, squad, rules)
		if err != nil {
			return err
		}
		if err := checkStarters(squad, starters, rules); err != nil {
			return rejectedResult(err)
		}
		return nil
	})
	if err == nil {
		return starters, s.exact.Name(), nil
	}
	if err := s.fallbackAllowed(ctx, err); err != nil {
		return nil, "", err
	}

	starters, err = s.fallback.SelectLineup(ctx, squad, rules)
	if err != nil {
		return nil, "", err
	}
	if err := checkStarters(squad, starters, rules); err != nil {
		return nil, "", err
	}
	return starters, s.fallback.Name(), nil
}

// tryExact runs fn against the exact strategy under the solve timeout,
// converting panics into errors and feeding the breaker. The solve runs on
// its own goroutine so a slow relaxation cannot hold the caller past the
// timeout. It is detached from the caller's cancellation: it always ends at
// its own deadline, and the breaker records what the solver actually did.
func (s *Selector) tryExact(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if s.exact == nil {
		return crerr.Wrap(selection.ErrSolverUnavailable, "no exact strategy configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	solveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SolveTimeout)
	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- s.guarded(solveCtx, operation, fn)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	case <-solveCtx.Done():
		// The goroutine sends before it cancels, so a finished solve wins.
		select {
		case err = <-done:
		default:
			err = crerr.Wrapf(selection.ErrSolverTimeout, "exact %s solve exceeded %s", operation, s.cfg.SolveTimeout)
		}
	}

	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "exact solve finished",
			"operation", operation,
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	case errors.Is(err, errCircuitOpen):
		s.logger.WarnContext(ctx, "solver circuit open, using fallback",
			"operation", operation,
			"strategy", s.fallback.Name(),
		)
	case isSolverFailure(err):
		s.logger.WarnContext(ctx, "exact solver failed, using fallback",
			"operation", operation,
			"strategy", s.fallback.Name(),
			"reason", err.Error(),
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	}
	return err
}

// guarded runs fn through the breaker, if any, with panics turned into
// solver failures.
func (s *Selector) guarded(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	run := func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			return crerr.Wrapf(selection.ErrSolverUnavailable, "exact %s solve panicked: %v", operation, recovered.AsError())
		}
		return err
	}
	if s.breaker == nil {
		return run()
	}
	return s.breaker.Execute(run)
}

// fallbackAllowed returns nil when err should be absorbed by the fallback,
// or the error the caller should see instead.
func (s *Selector) fallbackAllowed(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !isSolverFailure(err) {
		return err
	}
	return nil
}

// isSolverFailure separates solver trouble, which the fallback absorbs, from
// data and caller errors, which it would only repeat.
func isSolverFailure(err error) bool {
	switch {
	case errors.Is(err, selection.ErrInfeasible),
		errors.Is(err, selection.ErrInvalidSquad),
		errors.Is(err, selection.ErrInvalidRules),
		errors.Is(err, selection.ErrInvalidCandidates):
		return false
	default:
		return true
	}
}

// rejectedResult turns a validation failure of an exact result into a solver
// failure so the fallback gets a chance.
func rejectedResult(err error) error {
	return crerr.Wrapf(selection.ErrSolverUnavailable, "exact result rejected: %v", err)
}

func precheck(candidates []player.Candidate, rules selection.Rules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := selection.ValidateCandidates(candidates); err != nil {
		return err
	}
	return selection.CheckPool(candidates, rules)
}

// checkStarters resolves starter IDs against the squad and validates the
// resulting lineup.
func checkStarters(squad []player.Candidate, starterIDs []int64, rules selection.Rules) error {
	byID := make(map[int64]player.Candidate, len(squad))
	for _, c := range squad {
		byID[c.ID] = c
	}

	lineup := make([]player.Candidate, 0, len(starterIDs))
	seen := make(map[int64]struct{}, len(starterIDs))
	for _, id := range starterIDs {
		c, ok := byID[id]
		if !ok {
			return crerr.Wrapf(selection.ErrInvalidSquad, "starter %d is not a squad member", id)
		}
		if _, dup := seen[id]; dup {
			return crerr.Wrapf(selection.ErrInvalidSquad, "starter %d listed twice", id)
		}
		seen[id] = struct{}{}
		lineup = append(lineup, c)
	}
	return selection.ValidateLineup(lineup, rules)
}
