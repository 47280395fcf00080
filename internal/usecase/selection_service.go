package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// Selector is the optimizer entry point the services depend on.
type Selector interface {
	Select(ctx context.Context, candidates []player.Candidate, rules selection.Rules) (selection.Selection, error)
}

// SelectRoundInput is the payload for picking and storing a round's squad.
type SelectRoundInput struct {
	Round       int
	Predictions []player.Prediction
	Players     []player.Metadata
	// Rules overrides the service rules when set.
	Rules *selection.Rules
}

type SelectionService struct {
	selector Selector
	repo     selection.Repository
	rules    selection.Rules
	policy   AvailabilityPolicy
	logger   *logging.Logger
	now      func() time.Time
}

func NewSelectionService(
	selector Selector,
	repo selection.Repository,
	rules selection.Rules,
	policy AvailabilityPolicy,
	logger *logging.Logger,
) *SelectionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SelectionService{
		selector: selector,
		repo:     repo,
		rules:    rules,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SelectionService) Rules() selection.Rules {
	return s.rules.Clone()
}

// SelectRound builds the round's candidate table, picks a squad and lineup,
// and stores the result, replacing any earlier selection for the round.
func (s *SelectionService) SelectRound(ctx context.Context, input SelectRoundInput) (selection.Selection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectionService.SelectRound")
	defer span.End()

	if input.Round < 1 {
		return selection.Selection{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
	}
	if len(input.Predictions) == 0 {
		return selection.Selection{}, fmt.Errorf("%w: predictions are required", ErrInvalidInput)
	}
	if len(input.Players) == 0 {
		return selection.Selection{}, fmt.Errorf("%w: player metadata is required", ErrInvalidInput)
	}

	candidates := BuildCandidates(input.Predictions, input.Players, s.policy)
	span.SetAttributes(
		attribute.Int("selection.round", input.Round),
		attribute.Int("selection.candidates", len(candidates)),
	)

	return s.selectAndStore(ctx, input.Round, candidates, input.Rules)
}

// selectAndStore runs the optimizer over a ready candidate table and stores
// the result as round's selection.
func (s *SelectionService) selectAndStore(ctx context.Context, round int, candidates []player.Candidate, rules *selection.Rules) (selection.Selection, error) {
	result, err := s.Select(ctx, candidates, rules)
	if err != nil {
		return selection.Selection{}, err
	}
	result.Round = round

	if err := s.repo.Upsert(ctx, result); err != nil {
		return selection.Selection{}, fmt.Errorf("store selection round=%d: %w", round, err)
	}

	s.logger.InfoContext(ctx, "round selection stored",
		"round", round,
		"strategy", result.Strategy,
		"candidates", len(candidates),
		"squad_score", result.SquadScore,
		"starter_score", result.StarterScore,
	)
	return result, nil
}

// Select runs the optimizer over a ready candidate table without storing
// anything.
func (s *SelectionService) Select(ctx context.Context, candidates []player.Candidate, override *selection.Rules) (selection.Selection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectionService.Select", attribute.Int("selection.candidates", len(candidates)))
	defer span.End()

	rules := s.rules
	if override != nil {
		rules = override.Clone()
	}

	result, err := s.selector.Select(ctx, candidates, rules)
	if err != nil {
		return selection.Selection{}, mapSelectionError(err)
	}
	result.CreatedAt = s.now().UTC()
	span.SetAttributes(attribute.String("selection.strategy", string(result.Strategy)))
	return result, nil
}

func (s *SelectionService) GetRound(ctx context.Context, round int) (selection.Selection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SelectionService.GetRound", attribute.Int("selection.round", round))
	defer span.End()

	if round < 1 {
		return selection.Selection{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByRound(ctx, round)
	if err != nil {
		return selection.Selection{}, fmt.Errorf("get selection round=%d: %w", round, err)
	}
	if !exists {
		return selection.Selection{}, fmt.Errorf("%w: selection for round=%d", ErrNotFound, round)
	}
	return item, nil
}

// mapSelectionError tags caller mistakes as invalid input and leaves
// infeasibility and context errors as they are.
func mapSelectionError(err error) error {
	switch {
	case errors.Is(err, selection.ErrInvalidRules),
		errors.Is(err, selection.ErrInvalidCandidates),
		errors.Is(err, selection.ErrInvalidSquad):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, selection.ErrInfeasible),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("select squad: %w", err)
	default:
		return fmt.Errorf("%w: select squad: %w", ErrDependencyUnavailable, err)
	}
}
