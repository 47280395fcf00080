package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

type backtestRequest struct {
	Rounds  []backtestRoundDTO `json:"rounds" validate:"required,min=1,max=100,dive"`
	Workers int                `json:"workers" validate:"gte=0,lte=32"`
	Persist bool               `json:"persist"`
	Rules   *rulesDTO          `json:"rules"`
}

type backtestRoundDTO struct {
	Round       int             `json:"round" validate:"required,gt=0"`
	Predictions []predictionDTO `json:"predictions" validate:"required,min=1,dive"`
	Players     []playerDTO     `json:"players" validate:"required,min=1,dive"`
}

func (h *Handler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "RunBacktest")
	defer span.End()

	var req backtestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	rules, err := req.Rules.toRules(h.selectionService.Rules())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rounds := make([]usecase.BacktestRound, 0, len(req.Rounds))
	for _, item := range req.Rounds {
		rounds = append(rounds, usecase.BacktestRound{
			Round:       item.Round,
			Predictions: predictionsFromDTO(item.Predictions, item.Round),
			Players:     playersFromDTO(item.Players),
		})
	}

	result, err := h.backtestService.Run(ctx, usecase.BacktestInput{
		Rounds:     rounds,
		MaxWorkers: req.Workers,
		Rules:      rules,
		Persist:    req.Persist,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "backtest failed", "rounds", len(rounds), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
