package httpapi

import (
	"net/http"
	"strconv"

	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/report"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

func (h *Handler) SelectRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "SelectRound")
	defer span.End()

	round, err := roundFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectRoundRequest
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

	item, err := h.selectionService.SelectRound(ctx, usecase.SelectRoundInput{
		Round:       round,
		Predictions: predictionsFromDTO(req.Predictions, round),
		Players:     playersFromDTO(req.Players),
		Rules:       rules,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "select round failed", "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, selectionToDTO(item))
}

func (h *Handler) SelectCandidates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "SelectCandidates")
	defer span.End()

	var req selectCandidatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	candidates, err := candidatesFromDTO(req.Candidates)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	rules, err := req.Rules.toRules(h.selectionService.Rules())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.selectionService.Select(ctx, candidates, rules)
	if err != nil {
		h.logger.WarnContext(ctx, "select candidates failed", "candidates", len(candidates), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, selectionToDTO(item))
}

func (h *Handler) GetRoundSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "GetRoundSelection")
	defer span.End()

	round, err := roundFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.selectionService.GetRound(ctx, round)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, selectionToDTO(item))
}

func (h *Handler) ExportRoundSelectionCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "ExportRoundSelectionCSV")
	defer span.End()

	round, err := roundFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.selectionService.GetRound(ctx, round)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gw`+strconv.Itoa(round)+`_squad.csv"`)
	if err := report.WriteSelectionCSV(w, item); err != nil {
		h.logger.ErrorContext(ctx, "write selection csv failed", "round", round, "error", err)
	}
}
