package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-autopick/internal/optimizer"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
	"github.com/stretchr/testify/require"
)

type testEnvelope[T any] struct {
	APIVersion string           `json:"apiVersion"`
	Data       T                `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	selector := optimizer.NewSelector(
		optimizer.NewExactStrategy(optimizer.NewBranchAndBound(0), 0),
		optimizer.NewGreedy(),
		nil,
		optimizer.SelectorConfig{},
		logger,
	)
	repo := memory.NewSelectionRepository()
	selections := usecase.NewSelectionService(selector, repo, selection.DefaultRules(), usecase.DefaultAvailabilityPolicy(), logger)
	handler := NewHandler(
		selections,
		usecase.NewEvaluationService(repo, logger),
		usecase.NewBacktestService(selections, 2, logger),
		logger,
	)
	return NewRouter(handler, logger, true, nil)
}

// roundPayload has 21 available players, two per club, enough to fill the
// default quotas with spares at every position.
func roundPayload() selectRoundRequest {
	counts := []struct {
		elementType int
		n           int
	}{{1, 3}, {2, 7}, {3, 7}, {4, 4}}

	var (
		req selectRoundRequest
		id  int64
	)
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			id++
			points := float64(id%7) + 1
			req.Predictions = append(req.Predictions, predictionDTO{PlayerID: id, PredictedPoints: &points})
			req.Players = append(req.Players, playerDTO{
				ID:          id,
				Name:        fmt.Sprintf("Player %d", id),
				ElementType: c.elementType,
				Club:        fmt.Sprintf("C%02d", (id+1)/2),
				Status:      "a",
			})
		}
	}
	return req
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		require.NoError(t, err)
		body.Write(raw)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var out testEnvelope[T]
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_RoundLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/rounds/7/selection", roundPayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeEnvelope[selectionDTO](t, rec)
	require.Nil(t, created.Error)
	require.Equal(t, 7, created.Data.Round)
	require.Equal(t, string(selection.StrategyExact), created.Data.Strategy)
	require.Len(t, created.Data.Members, 15)

	starters := 0
	for _, m := range created.Data.Members {
		if m.IsStarter {
			starters++
		}
	}
	require.Equal(t, 11, starters)

	rec = doJSON(t, router, http.MethodGet, "/v1/rounds/7/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decodeEnvelope[selectionDTO](t, rec)
	require.InDelta(t, created.Data.SquadPoints, stored.Data.SquadPoints, 1e-9)

	rec = doJSON(t, router, http.MethodGet, "/v1/rounds/7/selection.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 16)
	require.True(t, strings.HasPrefix(lines[0], "player_id,player_name,position,club,round"))

	outcomes := evaluateRoundRequest{}
	for _, m := range stored.Data.Members {
		points := m.PredictedPoints
		outcomes.Outcomes = append(outcomes.Outcomes, outcomeDTO{PlayerID: m.PlayerID, PredictedPoints: &points, ActualPoints: points + 1})
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/rounds/7/evaluation", outcomes)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	evaluated := decodeEnvelope[evaluationDTO](t, rec)
	require.InDelta(t, 15, evaluated.Data.Difference, 1e-9)
	require.Equal(t, 15, evaluated.Data.Accuracy.Samples)
	require.InDelta(t, 1, evaluated.Data.Accuracy.MAE, 1e-9)

	rec = doJSON(t, router, http.MethodGet, "/v1/rounds/8/selection", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SelectCandidates(t *testing.T) {
	router := newTestRouter(t)

	payload := selectCandidatesRequest{}
	positions := []struct {
		pos string
		n   int
	}{{"GK", 2}, {"DEF", 5}, {"MID", 5}, {"FWD", 3}}
	var id int64
	for _, p := range positions {
		for i := 0; i < p.n; i++ {
			id++
			payload.Candidates = append(payload.Candidates, candidateDTO{
				ID:              id,
				Position:        p.pos,
				Club:            fmt.Sprintf("C%d", id),
				PredictedPoints: float64(id),
			})
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/selections", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeEnvelope[selectionDTO](t, rec)
	require.Len(t, got.Data.Members, 15)
	require.InDelta(t, 120, got.Data.SquadPoints, 1e-9)

	// Dropping a goalkeeper leaves no feasible squad.
	payload.Candidates = payload.Candidates[1:]
	rec = doJSON(t, router, http.MethodPost, "/v1/selections", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	failed := decodeEnvelope[map[string]any](t, rec)
	require.NotNil(t, failed.Error)
	require.Equal(t, "FAILED_PRECONDITION", failed.Error.Status)
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)
	clubCap := 0

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "malformed json", method: http.MethodPost, path: "/v1/selections", body: `{"candidates":[`, status: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/v1/selections", body: `{"candidates":[],"extra":1}`, status: http.StatusBadRequest},
		{name: "empty candidates", method: http.MethodPost, path: "/v1/selections", body: `{"candidates":[]}`, status: http.StatusBadRequest},
		{name: "bad position", method: http.MethodPost, path: "/v1/selections", body: `{"candidates":[{"id":1,"position":"COACH","club":"A"}]}`, status: http.StatusBadRequest},
		{name: "bad round", method: http.MethodGet, path: "/v1/rounds/abc/selection", status: http.StatusBadRequest},
		{name: "zero round", method: http.MethodGet, path: "/v1/rounds/0/selection.csv", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	t.Run("invalid rules override", func(t *testing.T) {
		payload := roundPayload()
		payload.Rules = &rulesDTO{ClubCap: &clubCap}
		rec := doJSON(t, router, http.MethodPost, "/v1/rounds/1/selection", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func TestHandler_RunBacktest(t *testing.T) {
	router := newTestRouter(t)
	round := roundPayload()

	payload := backtestRequest{
		Rounds: []backtestRoundDTO{
			{Round: 2, Predictions: round.Predictions, Players: round.Players},
			{Round: 1, Predictions: round.Predictions, Players: round.Players},
		},
		Workers: 2,
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/backtests", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeEnvelope[usecase.BacktestResult](t, rec)
	require.Equal(t, 2, got.Data.RoundCount)
	require.Equal(t, 2, got.Data.SuccessCount)
	require.Len(t, got.Data.Rounds, 2)
	require.Equal(t, 1, got.Data.Rounds[0].Round)
	require.Equal(t, selection.StrategyExact, got.Data.Rounds[0].Strategy)
}

func TestHandler_Docs(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/v1/rounds/{round}/selection")

	rec = doJSON(t, router, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), swaggerTitle)
}
