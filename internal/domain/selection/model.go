package selection

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
)

// Strategy names the algorithm that produced a selection.
type Strategy string

const (
	StrategyExact  Strategy = "exact"
	StrategyGreedy Strategy = "greedy"
)

// Member is one squad slot in a selection.
type Member struct {
	player.Candidate
	IsStarter   bool
	BenchRank   int
	ActualScore *float64
}

// Selection is the squad and lineup chosen for one round.
type Selection struct {
	Round        int
	Strategy     Strategy
	Members      []Member
	SquadScore   float64
	StarterScore float64
	CreatedAt    time.Time
}

func (s Selection) Squad() []player.Candidate {
	out := make([]player.Candidate, 0, len(s.Members))
	for _, m := range s.Members {
		out = append(out, m.Candidate)
	}
	return out
}

func (s Selection) Starters() []Member {
	out := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if m.IsStarter {
			out = append(out, m)
		}
	}
	return out
}

func (s Selection) Bench() []Member {
	out := make([]Member, 0, 4)
	for _, m := range s.Members {
		if !m.IsStarter {
			out = append(out, m)
		}
	}
	return out
}

// Clone deep-copies members so callers can annotate without aliasing.
func (s Selection) Clone() Selection {
	copied := s
	copied.Members = make([]Member, len(s.Members))
	for i, m := range s.Members {
		copied.Members[i] = m
		if m.ActualScore != nil {
			v := *m.ActualScore
			copied.Members[i].ActualScore = &v
		}
	}
	return copied
}

// Assemble orders a squad for reporting: starters first grouped by position
// and sorted by score, then the bench with the goalkeeper leading.
func Assemble(squad []player.Candidate, starterIDs []int64, strategy Strategy) (Selection, error) {
	isStarter := make(map[int64]bool, len(starterIDs))
	for _, id := range starterIDs {
		isStarter[id] = true
	}

	starters := make([]player.Candidate, 0, len(starterIDs))
	bench := make([]player.Candidate, 0, len(squad))
	for _, c := range squad {
		if isStarter[c.ID] {
			starters = append(starters, c)
			delete(isStarter, c.ID)
			continue
		}
		bench = append(bench, c)
	}
	if len(isStarter) > 0 {
		return Selection{}, fmt.Errorf("%w: %d starters are not squad members", ErrInvalidSquad, len(isStarter))
	}

	sort.SliceStable(starters, func(i, j int) bool {
		if ri, rj := starters[i].Position.Rank(), starters[j].Position.Rank(); ri != rj {
			return ri < rj
		}
		return byScoreThenID(starters[i], starters[j])
	})
	sort.SliceStable(bench, func(i, j int) bool {
		gi := bench[i].Position == player.PositionGoalkeeper
		gj := bench[j].Position == player.PositionGoalkeeper
		if gi != gj {
			return gi
		}
		return byScoreThenID(bench[i], bench[j])
	})

	out := Selection{
		Strategy: strategy,
		Members:  make([]Member, 0, len(squad)),
	}
	for _, c := range starters {
		out.Members = append(out.Members, Member{Candidate: c, IsStarter: true})
		out.StarterScore += c.PredictedScore
		out.SquadScore += c.PredictedScore
	}
	for i, c := range bench {
		out.Members = append(out.Members, Member{Candidate: c, BenchRank: i + 1})
		out.SquadScore += c.PredictedScore
	}

	return out, nil
}

func byScoreThenID(a, b player.Candidate) bool {
	if a.PredictedScore != b.PredictedScore {
		return a.PredictedScore > b.PredictedScore
	}
	return a.ID < b.ID
}

// SortCandidates orders candidates by descending score, ID ascending on ties.
func SortCandidates(candidates []player.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return byScoreThenID(candidates[i], candidates[j])
	})
}

// TotalScore sums predicted scores.
func TotalScore(candidates []player.Candidate) float64 {
	var total float64
	for _, c := range candidates {
		total += c.PredictedScore
	}
	return total
}

// Evaluation reconciles a stored selection with realized scores.
type Evaluation struct {
	Round                 int
	PredictedSquadScore   float64
	ActualSquadScore      float64
	PredictedStarterScore float64
	ActualStarterScore    float64
	Difference            float64
	Accuracy              Accuracy
}

// Accuracy summarizes prediction error over all players of a round.
type Accuracy struct {
	Samples int
	MAE     float64
	RMSE    float64
	R2      float64
}
