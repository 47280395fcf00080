package optimizer

import (
	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

type sense int

const (
	senseEQ sense = iota
	senseLE
	senseGE
)

type row struct {
	name   string
	coeffs map[int]float64
	sense  sense
	rhs    float64
}

// Model is a 0/1 maximization program: maximize Σ objective[j]·x[j]
// subject to linear rows, with every x[j] binary.
type Model struct {
	objective []float64
	rows      []row
}

func (m *Model) addVar(weight float64) int {
	m.objective = append(m.objective, weight)
	return len(m.objective) - 1
}

func (m *Model) addRow(name string, coeffs map[int]float64, s sense, rhs float64) {
	if len(coeffs) == 0 && rhs == 0 {
		return
	}
	m.rows = append(m.rows, row{name: name, coeffs: coeffs, sense: s, rhs: rhs})
}

func (m *Model) NumVars() int {
	return len(m.objective)
}

func (m *Model) NumRows() int {
	return len(m.rows)
}

// Value returns the objective of a binary assignment.
func (m *Model) Value(x []bool) float64 {
	var total float64
	for j, on := range x {
		if on {
			total += m.objective[j]
		}
	}
	return total
}

// pruneCandidates drops candidates that no optimal squad needs. Two
// exchange arguments bound what is kept, both over the score-desc, ID-asc
// order:
//
//   - Per (position, club), the best min(quota, club cap). A squad using a
//     lower-ranked member of a pair can swap in an unused higher-ranked one
//     without breaking a row.
//   - Per position, the best quota + F·min(quota, club cap), where
//     F = (squad size - 1) / club cap. A better unused player of the same
//     position could replace a squad member unless that player's club is
//     already full, and at most F other clubs can be full around the member.
//
// Swaps keep the member's role, so the bounds hold for joint solves too.
func pruneCandidates(candidates []player.Candidate, rules selection.Rules) []player.Candidate {
	ordered := append([]player.Candidate(nil), candidates...)
	selection.SortCandidates(ordered)

	fullClubs := 0
	if rules.ClubCap > 0 {
		fullClubs = (rules.SquadSize() - 1) / rules.ClubCap
	}

	type pairKey struct {
		pos  player.Position
		club string
	}
	keptPair := make(map[pairKey]int)
	keptPosition := make(map[player.Position]int)
	out := make([]player.Candidate, 0, len(ordered))
	for _, c := range ordered {
		perClub := min(rules.Quotas[c.Position], rules.ClubCap)
		key := pairKey{pos: c.Position, club: c.Club}
		if keptPair[key] >= perClub {
			continue
		}
		if keptPosition[c.Position] >= rules.Quotas[c.Position]+fullClubs*perClub {
			continue
		}
		keptPair[key]++
		keptPosition[c.Position]++
		out = append(out, c)
	}
	return out
}

// squadModel has one variable per candidate: 1 when the candidate joins the
// squad.
func squadModel(candidates []player.Candidate, rules selection.Rules) *Model {
	m := &Model{}
	vars := make([]int, len(candidates))
	for i, c := range candidates {
		vars[i] = m.addVar(c.PredictedScore)
	}
	addSquadRows(m, candidates, vars, rules)
	return m
}

func addSquadRows(m *Model, candidates []player.Candidate, vars []int, rules selection.Rules) {
	byPosition := make(map[player.Position]map[int]float64)
	byClub := make(map[string]map[int]float64)
	clubs := make([]string, 0)
	for i, c := range candidates {
		if byPosition[c.Position] == nil {
			byPosition[c.Position] = make(map[int]float64)
		}
		byPosition[c.Position][vars[i]] = 1

		if byClub[c.Club] == nil {
			byClub[c.Club] = make(map[int]float64)
			clubs = append(clubs, c.Club)
		}
		byClub[c.Club][vars[i]] = 1
	}

	for _, pos := range player.OrderedPositions {
		m.addRow("quota:"+string(pos), byPosition[pos], senseEQ, float64(rules.Quotas[pos]))
	}
	for _, club := range clubs {
		if len(byClub[club]) <= rules.ClubCap {
			continue
		}
		m.addRow("club:"+club, byClub[club], senseLE, float64(rules.ClubCap))
	}
}

// lineupModel has one variable per squad member: 1 when the member starts.
func lineupModel(squad []player.Candidate, rules selection.Rules) *Model {
	m := &Model{}
	vars := make([]int, len(squad))
	for i, c := range squad {
		vars[i] = m.addVar(c.PredictedScore)
	}
	addLineupRows(m, squad, vars, rules)
	return m
}

func addLineupRows(m *Model, members []player.Candidate, vars []int, rules selection.Rules) {
	byPosition := make(map[player.Position]map[int]float64)
	all := make(map[int]float64, len(members))
	for i, c := range members {
		if byPosition[c.Position] == nil {
			byPosition[c.Position] = make(map[int]float64)
		}
		byPosition[c.Position][vars[i]] = 1
		all[vars[i]] = 1
	}

	for _, pos := range player.OrderedPositions {
		minRequired := rules.FormationMin[pos]
		if pos == player.PositionGoalkeeper {
			m.addRow("formation:GK", byPosition[pos], senseEQ, float64(minRequired))
			continue
		}
		if minRequired == 0 {
			continue
		}
		m.addRow("formation:"+string(pos), byPosition[pos], senseGE, float64(minRequired))
	}
	m.addRow("starters", all, senseEQ, float64(rules.Starters))
}

// jointModel carries x (in squad) and y (starts) per candidate, y <= x.
// Variables 0..n-1 are x and n..2n-1 are y. Starters score fully; squad
// membership scores benchWeight times the prediction.
func jointModel(candidates []player.Candidate, rules selection.Rules, benchWeight float64) *Model {
	m := &Model{}
	xs := make([]int, len(candidates))
	ys := make([]int, len(candidates))
	for i, c := range candidates {
		xs[i] = m.addVar(benchWeight * c.PredictedScore)
	}
	for i, c := range candidates {
		ys[i] = m.addVar(c.PredictedScore)
	}

	addSquadRows(m, candidates, xs, rules)
	addLineupRows(m, candidates, ys, rules)
	for i := range candidates {
		m.addRow("link", map[int]float64{ys[i]: 1, xs[i]: -1}, senseLE, 0)
	}
	return m
}
