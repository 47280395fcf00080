package usecase

import (
	"slices"
	"strings"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
)

const defaultMinChanceOfPlaying = 50

// AvailabilityPolicy decides which predicted players may be selected.
type AvailabilityPolicy struct {
	// MinChanceOfPlaying is compared against the provider's percentage; a
	// missing percentage counts as 100.
	MinChanceOfPlaying int
	ExcludedStatuses   []string
}

// DefaultAvailabilityPolicy drops doubtful players plus injured (i),
// suspended (s) and unavailable (u) ones.
func DefaultAvailabilityPolicy() AvailabilityPolicy {
	return AvailabilityPolicy{
		MinChanceOfPlaying: defaultMinChanceOfPlaying,
		ExcludedStatuses:   []string{"i", "s", "u"},
	}
}

func (p AvailabilityPolicy) available(meta player.Metadata) bool {
	chance := 100
	if meta.ChanceOfPlayingNextRound != nil {
		chance = *meta.ChanceOfPlayingNextRound
	}
	if chance < p.MinChanceOfPlaying {
		return false
	}
	status := strings.ToLower(strings.TrimSpace(meta.Status))
	return !slices.Contains(p.ExcludedStatuses, status)
}

// BuildCandidates joins predictions with player metadata and keeps the rows
// that map to a position and pass the availability policy. A missing
// predicted score becomes 0. Predictions repeated for one player keep the
// first row.
func BuildCandidates(predictions []player.Prediction, players []player.Metadata, policy AvailabilityPolicy) []player.Candidate {
	metaByID := make(map[int64]player.Metadata, len(players))
	for _, meta := range players {
		metaByID[meta.ID] = meta
	}

	candidates := make([]player.Candidate, 0, len(predictions))
	seen := make(map[int64]struct{}, len(predictions))
	for _, pred := range predictions {
		if _, dup := seen[pred.PlayerID]; dup {
			continue
		}
		meta, ok := metaByID[pred.PlayerID]
		if !ok {
			continue
		}
		position, ok := player.PositionFromElementType(meta.ElementType)
		if !ok {
			continue
		}
		if !policy.available(meta) {
			continue
		}

		name := strings.TrimSpace(pred.PlayerName)
		if name == "" {
			name = meta.Name
		}
		score := 0.0
		if pred.PredictedScore != nil {
			score = *pred.PredictedScore
		}

		seen[pred.PlayerID] = struct{}{}
		candidates = append(candidates, player.Candidate{
			ID:             pred.PlayerID,
			Name:           name,
			Position:       position,
			Club:           meta.Club,
			PredictedScore: score,
		})
	}
	return candidates
}
