package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/stat"
)

type EvaluateRoundInput struct {
	Round    int
	Outcomes []player.Outcome
}

// EvaluationService reconciles stored selections with realized points.
type EvaluationService struct {
	repo   selection.Repository
	logger *logging.Logger
}

func NewEvaluationService(repo selection.Repository, logger *logging.Logger) *EvaluationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EvaluationService{repo: repo, logger: logger}
}

// EvaluateRound records actual points on the round's selection and compares
// them with the predictions. Members without an outcome scored 0.
func (s *EvaluationService) EvaluateRound(ctx context.Context, input EvaluateRoundInput) (selection.Evaluation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EvaluationService.EvaluateRound",
		attribute.Int("selection.round", input.Round),
		attribute.Int("evaluation.outcomes", len(input.Outcomes)),
	)
	defer span.End()

	if input.Round < 1 {
		return selection.Evaluation{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
	}
	if len(input.Outcomes) == 0 {
		return selection.Evaluation{}, fmt.Errorf("%w: outcomes are required", ErrInvalidInput)
	}

	stored, exists, err := s.repo.GetByRound(ctx, input.Round)
	if err != nil {
		return selection.Evaluation{}, fmt.Errorf("get selection round=%d: %w", input.Round, err)
	}
	if !exists {
		return selection.Evaluation{}, fmt.Errorf("%w: selection for round=%d", ErrNotFound, input.Round)
	}

	actualByID := make(map[int64]float64, len(input.Outcomes))
	for _, o := range input.Outcomes {
		actualByID[o.PlayerID] = o.ActualScore
	}

	out := selection.Evaluation{Round: input.Round}
	memberActuals := make(map[int64]float64, len(stored.Members))
	for _, m := range stored.Members {
		actual := actualByID[m.ID]
		memberActuals[m.ID] = actual

		out.PredictedSquadScore += m.PredictedScore
		out.ActualSquadScore += actual
		if m.IsStarter {
			out.PredictedStarterScore += m.PredictedScore
			out.ActualStarterScore += actual
		}
	}
	out.Difference = out.ActualSquadScore - out.PredictedSquadScore
	out.Accuracy = PredictionAccuracy(input.Outcomes)

	if err := s.repo.UpdateActualScores(ctx, input.Round, memberActuals); err != nil {
		return selection.Evaluation{}, fmt.Errorf("store actual scores round=%d: %w", input.Round, err)
	}

	s.logger.InfoContext(ctx, "round evaluated",
		"round", input.Round,
		"predicted_squad", out.PredictedSquadScore,
		"actual_squad", out.ActualSquadScore,
		"difference", out.Difference,
		"mae", out.Accuracy.MAE,
		"samples", out.Accuracy.Samples,
	)
	return out, nil
}

// PredictionAccuracy scores predictions against actual points. Rows without
// a prediction are dropped, as are rows where both values are 0, which are
// almost always players who never featured.
func PredictionAccuracy(outcomes []player.Outcome) selection.Accuracy {
	predicted := make([]float64, 0, len(outcomes))
	actual := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.PredictedScore == nil {
			continue
		}
		if *o.PredictedScore == 0 && o.ActualScore == 0 {
			continue
		}
		predicted = append(predicted, *o.PredictedScore)
		actual = append(actual, o.ActualScore)
	}
	if len(predicted) == 0 {
		return selection.Accuracy{}
	}

	absErr := make([]float64, len(predicted))
	sqErr := make([]float64, len(predicted))
	for i := range predicted {
		diff := actual[i] - predicted[i]
		absErr[i] = math.Abs(diff)
		sqErr[i] = diff * diff
	}

	mse := stat.Mean(sqErr, nil)
	return selection.Accuracy{
		Samples: len(predicted),
		MAE:     stat.Mean(absErr, nil),
		RMSE:    math.Sqrt(mse),
		R2:      rSquared(predicted, actual, mse),
	}
}

// rSquared is 1 - SSres/SStot. A constant target has no variance to explain:
// a perfect fit scores 1 and anything else 0.
func rSquared(predicted, actual []float64, mse float64) float64 {
	if len(actual) < 2 || stat.Variance(actual, nil) == 0 {
		if mse == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}
