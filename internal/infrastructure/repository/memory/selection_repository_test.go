package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

func TestSelectionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSelectionRepository()

	item := selection.Selection{
		Round:    2,
		Strategy: selection.StrategyExact,
		Members: []selection.Member{
			{Candidate: player.Candidate{ID: 10, Position: player.PositionGoalkeeper, Club: "ARS", PredictedScore: 4}, IsStarter: true},
			{Candidate: player.Candidate{ID: 11, Position: player.PositionGoalkeeper, Club: "CHE", PredictedScore: 2}, BenchRank: 1},
		},
	}
	if err := repo.Upsert(ctx, item); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	item.Members[0].PredictedScore = 99

	got, ok, err := repo.GetByRound(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("get round: ok=%v err=%v", ok, err)
	}
	if got.Members[0].PredictedScore != 4 {
		t.Fatalf("stored selection aliased caller slice")
	}

	if err := repo.UpdateActualScores(ctx, 2, map[int64]float64{10: 7, 99: 1}); err != nil {
		t.Fatalf("update actual scores: %v", err)
	}
	got, _, _ = repo.GetByRound(ctx, 2)
	if got.Members[0].ActualScore == nil || *got.Members[0].ActualScore != 7 {
		t.Fatalf("expected actual score 7, got %v", got.Members[0].ActualScore)
	}
	if got.Members[1].ActualScore != nil {
		t.Fatalf("expected member without outcome to stay unset")
	}

	if _, ok, _ := repo.GetByRound(ctx, 3); ok {
		t.Fatalf("expected missing round")
	}
	if err := repo.UpdateActualScores(ctx, 3, nil); err == nil {
		t.Fatalf("expected error for missing round")
	}
}
