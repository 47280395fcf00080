package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

type Handler struct {
	selectionService  *usecase.SelectionService
	evaluationService *usecase.EvaluationService
	backtestService   *usecase.BacktestService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	selectionService *usecase.SelectionService,
	evaluationService *usecase.EvaluationService,
	backtestService *usecase.BacktestService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		selectionService:  selectionService,
		evaluationService: evaluationService,
		backtestService:   backtestService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r.Context(), "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeJSON(r *http.Request, target any) error {
	decoder := jsonAPI.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func roundFromPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("round"))
	round, err := strconv.Atoi(raw)
	if err != nil || round < 1 {
		return 0, fmt.Errorf("%w: round must be a positive integer, got %q", usecase.ErrInvalidInput, raw)
	}
	return round, nil
}
