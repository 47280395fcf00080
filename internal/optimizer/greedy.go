package optimizer

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

// Greedy is the always-available fallback. Its squads and lineups satisfy
// every rule but are not guaranteed optimal.
type Greedy struct{}

var _ Strategy = Greedy{}

func NewGreedy() Greedy {
	return Greedy{}
}

func (Greedy) Name() selection.Strategy {
	return selection.StrategyGreedy
}

// SelectSquad admits candidates in descending score order while their
// position has an open slot and their club is under the cap. An early pick
// can fill a club's cap and strand a better player of another position, so
// the total may fall short of the exact optimum, and on tight pools it can
// fail where an exact solve would succeed.
func (Greedy) SelectSquad(_ context.Context, candidates []player.Candidate, rules selection.Rules) ([]player.Candidate, error) {
	ordered := append([]player.Candidate(nil), candidates...)
	selection.SortCandidates(ordered)

	open := make(map[player.Position]int, len(rules.Quotas))
	remaining := 0
	for pos, n := range rules.Quotas {
		open[pos] = n
		remaining += n
	}
	perClub := make(map[string]int)

	squad := make([]player.Candidate, 0, remaining)
	for _, c := range ordered {
		if remaining == 0 {
			break
		}
		if open[c.Position] == 0 || perClub[c.Club] >= rules.ClubCap {
			continue
		}
		squad = append(squad, c)
		open[c.Position]--
		perClub[c.Club]++
		remaining--
	}

	if remaining > 0 {
		for _, pos := range player.OrderedPositions {
			if open[pos] > 0 {
				return nil, crerr.Wrapf(selection.ErrInfeasible, "greedy left %d %s slots open", open[pos], pos)
			}
		}
	}
	return squad, nil
}

// SelectLineup takes the best players of each position up to its formation
// minimum, then fills the remaining slots with the best unused outfielders.
// The goalkeeper count is exact, so the fill never adds a keeper.
func (Greedy) SelectLineup(_ context.Context, squad []player.Candidate, rules selection.Rules) ([]int64, error) {
	ordered := append([]player.Candidate(nil), squad...)
	selection.SortCandidates(ordered)

	used := make(map[int64]bool, rules.Starters)
	starters := make([]int64, 0, rules.Starters)
	for _, pos := range player.OrderedPositions {
		need := rules.FormationMin[pos]
		for _, c := range ordered {
			if need == 0 {
				break
			}
			if c.Position != pos {
				continue
			}
			starters = append(starters, c.ID)
			used[c.ID] = true
			need--
		}
		if need > 0 {
			return nil, crerr.Wrapf(selection.ErrInvalidSquad, "squad is %d %s short of the formation minimum", need, pos)
		}
	}

	for _, c := range ordered {
		if len(starters) == rules.Starters {
			break
		}
		if used[c.ID] || c.Position == player.PositionGoalkeeper {
			continue
		}
		starters = append(starters, c.ID)
		used[c.ID] = true
	}
	if len(starters) < rules.Starters {
		return nil, crerr.Wrapf(selection.ErrInvalidSquad, "squad fills %d of %d starting slots", len(starters), rules.Starters)
	}
	return starters, nil
}
