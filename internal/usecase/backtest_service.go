package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBacktestWorkers = 4
	maxBacktestWorkers     = 32

	backtestStatusSuccess = "success"
	backtestStatusFailed  = "failed"
)

type BacktestRound struct {
	Round       int
	Predictions []player.Prediction
	Players     []player.Metadata
}

type BacktestInput struct {
	Rounds     []BacktestRound
	MaxWorkers int
	Rules      *selection.Rules
	// Persist stores every successful round like SelectRound would.
	Persist bool
}

type BacktestResult struct {
	RoundCount        int                   `json:"round_count"`
	SuccessCount      int                   `json:"success_count"`
	FailedCount       int                   `json:"failed_count"`
	WorkerCount       int                   `json:"worker_count"`
	TotalSquadScore   float64               `json:"total_squad_score"`
	TotalStarterScore float64               `json:"total_starter_score"`
	Rounds            []BacktestRoundResult `json:"rounds"`
}

type BacktestRoundResult struct {
	Round        int                `json:"round"`
	Status       string             `json:"status"`
	Strategy     selection.Strategy `json:"strategy,omitempty"`
	Candidates   int                `json:"candidates"`
	SquadScore   float64            `json:"squad_score"`
	StarterScore float64            `json:"starter_score"`
	DurationMs   int64              `json:"duration_ms"`
	Message      string             `json:"message,omitempty"`
}

// BacktestService replays selection over many rounds on a bounded worker
// pool. Each round is an independent selector call.
type BacktestService struct {
	selections     *SelectionService
	defaultWorkers int
	logger         *logging.Logger
}

func NewBacktestService(selections *SelectionService, defaultWorkers int, logger *logging.Logger) *BacktestService {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultWorkers <= 0 {
		defaultWorkers = defaultBacktestWorkers
	}
	return &BacktestService{
		selections:     selections,
		defaultWorkers: defaultWorkers,
		logger:         logger,
	}
}

// Run selects every round and reports per-round outcomes. A failing round is
// recorded and does not stop the others.
func (s *BacktestService) Run(ctx context.Context, input BacktestInput) (BacktestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BacktestService.Run", attribute.Int("backtest.rounds", len(input.Rounds)))
	defer span.End()

	if len(input.Rounds) == 0 {
		return BacktestResult{}, fmt.Errorf("%w: at least one round is required", ErrInvalidInput)
	}
	seen := make(map[int]struct{}, len(input.Rounds))
	for _, r := range input.Rounds {
		if r.Round < 1 {
			return BacktestResult{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
		}
		if _, dup := seen[r.Round]; dup {
			return BacktestResult{}, fmt.Errorf("%w: round %d listed twice", ErrInvalidInput, r.Round)
		}
		seen[r.Round] = struct{}{}
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = s.defaultWorkers
	}
	workerCount = min(workerCount, maxBacktestWorkers, len(input.Rounds))

	result := BacktestResult{
		RoundCount:  len(input.Rounds),
		WorkerCount: workerCount,
		Rounds:      make([]BacktestRoundResult, 0, len(input.Rounds)),
	}
	results := make(chan BacktestRoundResult, len(input.Rounds))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BacktestResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, round := range input.Rounds {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := s.runRound(ctx, round, input.Rules, input.Persist)
			if row.Status == backtestStatusSuccess {
				successCount.Add(1)
			} else {
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			workers.Wait()
			return BacktestResult{}, fmt.Errorf("submit round to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Rounds = append(result.Rounds, row)
		result.TotalSquadScore += row.SquadScore
		result.TotalStarterScore += row.StarterScore
	}
	sort.SliceStable(result.Rounds, func(i, j int) bool {
		return result.Rounds[i].Round < result.Rounds[j].Round
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "backtest finished",
		"rounds", result.RoundCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"workers", result.WorkerCount,
	)
	return result, nil
}

func (s *BacktestService) runRound(ctx context.Context, round BacktestRound, rules *selection.Rules, persist bool) BacktestRoundResult {
	start := time.Now()
	row := BacktestRoundResult{Round: round.Round}

	var (
		picked selection.Selection
		err    error
	)
	candidates := BuildCandidates(round.Predictions, round.Players, s.selections.policy)
	row.Candidates = len(candidates)
	if persist {
		picked, err = s.selections.selectAndStore(ctx, round.Round, candidates, rules)
	} else {
		picked, err = s.selections.Select(ctx, candidates, rules)
	}
	row.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		row.Status = backtestStatusFailed
		row.Message = err.Error()
		s.logger.WarnContext(ctx, "backtest round failed", "round", round.Round, "error", err)
		return row
	}

	row.Status = backtestStatusSuccess
	row.Strategy = picked.Strategy
	row.SquadScore = picked.SquadScore
	row.StarterScore = picked.StarterScore
	return row
}
