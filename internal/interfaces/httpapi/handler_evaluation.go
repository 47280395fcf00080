package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

type evaluateRoundRequest struct {
	Outcomes []outcomeDTO `json:"outcomes" validate:"required,min=1,dive"`
}

type outcomeDTO struct {
	PlayerID        int64    `json:"player_id" validate:"required,gt=0"`
	PredictedPoints *float64 `json:"predicted_points"`
	ActualPoints    float64  `json:"actual_points"`
}

type evaluationDTO struct {
	Round                  int         `json:"round"`
	PredictedSquadPoints   float64     `json:"predicted_squad_points"`
	ActualSquadPoints      float64     `json:"actual_squad_points"`
	PredictedStarterPoints float64     `json:"predicted_starter_points"`
	ActualStarterPoints    float64     `json:"actual_starter_points"`
	Difference             float64     `json:"difference"`
	Accuracy               accuracyDTO `json:"accuracy"`
}

type accuracyDTO struct {
	Samples int     `json:"samples"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
	R2      float64 `json:"r2"`
}

func (h *Handler) EvaluateRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "EvaluateRound")
	defer span.End()

	round, err := roundFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req evaluateRoundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	outcomes := make([]player.Outcome, 0, len(req.Outcomes))
	for _, o := range req.Outcomes {
		outcomes = append(outcomes, player.Outcome{
			PlayerID:       o.PlayerID,
			PredictedScore: o.PredictedPoints,
			ActualScore:    o.ActualPoints,
		})
	}

	result, err := h.evaluationService.EvaluateRound(ctx, usecase.EvaluateRoundInput{
		Round:    round,
		Outcomes: outcomes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "evaluate round failed", "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, evaluationDTO{
		Round:                  result.Round,
		PredictedSquadPoints:   result.PredictedSquadScore,
		ActualSquadPoints:      result.ActualSquadScore,
		PredictedStarterPoints: result.PredictedStarterScore,
		ActualStarterPoints:    result.ActualStarterScore,
		Difference:             result.Difference,
		Accuracy: accuracyDTO{
			Samples: result.Accuracy.Samples,
			MAE:     result.Accuracy.MAE,
			RMSE:    result.Accuracy.RMSE,
			R2:      result.Accuracy.R2,
		},
	})
}
