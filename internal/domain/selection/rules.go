package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
)

var (
	ErrInfeasible         = errors.New("no squad satisfies the selection constraints")
	ErrInvalidSquad       = errors.New("invalid squad")
	ErrInvalidRules       = errors.New("invalid selection rules")
	ErrInvalidCandidates  = errors.New("invalid candidate table")
	ErrSolverUnavailable  = errors.New("exact solver unavailable")
	ErrSolverTimeout      = errors.New("exact solver timed out")
	ErrUnknownPosition    = errors.New("unknown player position")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
)

// Rules stores squad and lineup selection parameters.
type Rules struct {
	Quotas       map[player.Position]int
	ClubCap      int
	FormationMin map[player.Position]int
	Starters     int
}

func DefaultRules() Rules {
	return Rules{
		Quotas: map[player.Position]int{
			player.PositionGoalkeeper: 2,
			player.PositionDefender:   5,
			player.PositionMidfielder: 5,
			player.PositionForward:    3,
		},
		ClubCap: 3,
		FormationMin: map[player.Position]int{
			player.PositionGoalkeeper: 1,
			player.PositionDefender:   3,
			player.PositionMidfielder: 2,
			player.PositionForward:    1,
		},
		Starters: 11,
	}
}

// SquadSize is the sum of all position quotas.
func (r Rules) SquadSize() int {
	total := 0
	for _, n := range r.Quotas {
		total += n
	}
	return total
}

// BenchSize is the number of squad members left out of the lineup.
func (r Rules) BenchSize() int {
	return r.SquadSize() - r.Starters
}

// Clone returns a copy that shares no maps with r.
func (r Rules) Clone() Rules {
	out := r
	out.Quotas = make(map[player.Position]int, len(r.Quotas))
	for k, v := range r.Quotas {
		out.Quotas[k] = v
	}
	out.FormationMin = make(map[player.Position]int, len(r.FormationMin))
	for k, v := range r.FormationMin {
		out.FormationMin[k] = v
	}
	return out
}

// Validate checks that the rules admit at least one lineup for any squad
// that meets the quotas.
func (r Rules) Validate() error {
	if len(r.Quotas) == 0 {
		return fmt.Errorf("%w: quotas are required", ErrInvalidRules)
	}
	for pos, n := range r.Quotas {
		if _, ok := player.AllPositions[pos]; !ok {
			return fmt.Errorf("%w: %w: %s", ErrInvalidRules, ErrUnknownPosition, pos)
		}
		if n < 0 {
			return fmt.Errorf("%w: quota for %s must be >= 0", ErrInvalidRules, pos)
		}
	}
	if r.ClubCap < 1 {
		return fmt.Errorf("%w: club cap must be >= 1", ErrInvalidRules)
	}
	if r.Starters < 1 || r.Starters > r.SquadSize() {
		return fmt.Errorf("%w: starters must be between 1 and %d, got %d", ErrInvalidRules, r.SquadSize(), r.Starters)
	}

	minTotal := 0
	for pos, n := range r.FormationMin {
		if _, ok := player.AllPositions[pos]; !ok {
			return fmt.Errorf("%w: %w: %s", ErrInvalidRules, ErrUnknownPosition, pos)
		}
		if n < 0 {
			return fmt.Errorf("%w: formation minimum for %s must be >= 0", ErrInvalidRules, pos)
		}
		if n > r.Quotas[pos] {
			return fmt.Errorf("%w: formation minimum for %s (%d) exceeds quota (%d)", ErrInvalidRules, pos, n, r.Quotas[pos])
		}
		minTotal += n
	}
	if minTotal > r.Starters {
		return fmt.Errorf("%w: formation minimums (%d) exceed starters (%d)", ErrInvalidRules, minTotal, r.Starters)
	}

	// Goalkeepers start in exact numbers, so outfield members must cover the rest.
	outfield := r.SquadSize() - r.Quotas[player.PositionGoalkeeper]
	if r.Starters-r.FormationMin[player.PositionGoalkeeper] > outfield {
		return fmt.Errorf("%w: not enough outfield quota to field %d starters", ErrInvalidRules, r.Starters)
	}

	return nil
}

func (r Rules) String() string {
	parts := make([]string, 0, len(player.OrderedPositions))
	for _, pos := range player.OrderedPositions {
		parts = append(parts, fmt.Sprintf("%s:%d/%d", pos, r.Quotas[pos], r.FormationMin[pos]))
	}
	return fmt.Sprintf("quotas=[%s] club_cap=%d starters=%d", strings.Join(parts, ","), r.ClubCap, r.Starters)
}

// ValidateCandidates rejects tables with duplicate IDs or unmapped positions.
func ValidateCandidates(candidates []player.Candidate) error {
	seen := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		if _, exists := seen[c.ID]; exists {
			return fmt.Errorf("%w: %w: %d", ErrInvalidCandidates, ErrDuplicateCandidate, c.ID)
		}
		seen[c.ID] = struct{}{}
		if _, ok := player.AllPositions[c.Position]; !ok {
			return fmt.Errorf("%w: %w: %s", ErrInvalidCandidates, ErrUnknownPosition, c.Position)
		}
	}
	return nil
}

// CheckPool fails fast when a position has fewer candidates than its quota.
func CheckPool(candidates []player.Candidate, rules Rules) error {
	counts := make(map[player.Position]int, len(player.AllPositions))
	for _, c := range candidates {
		counts[c.Position]++
	}
	for _, pos := range player.OrderedPositions {
		if counts[pos] < rules.Quotas[pos] {
			return fmt.Errorf("%w: pos=%s need=%d available=%d", ErrInfeasible, pos, rules.Quotas[pos], counts[pos])
		}
	}
	return nil
}

// ValidateSquad checks a squad against quotas, club cap and uniqueness.
func ValidateSquad(squad []player.Candidate, rules Rules) error {
	if len(squad) != rules.SquadSize() {
		return fmt.Errorf("%w: expected %d members, got %d", ErrInvalidSquad, rules.SquadSize(), len(squad))
	}

	clubCounter := make(map[string]int)
	positionCounter := make(map[player.Position]int)
	seen := make(map[int64]struct{}, len(squad))
	for _, member := range squad {
		if _, exists := seen[member.ID]; exists {
			return fmt.Errorf("%w: %w: %d", ErrInvalidSquad, ErrDuplicateCandidate, member.ID)
		}
		seen[member.ID] = struct{}{}

		if _, ok := player.AllPositions[member.Position]; !ok {
			return fmt.Errorf("%w: %w: %s", ErrInvalidSquad, ErrUnknownPosition, member.Position)
		}

		clubCounter[member.Club]++
		if clubCounter[member.Club] > rules.ClubCap {
			return fmt.Errorf("%w: club=%s max=%d", ErrInvalidSquad, member.Club, rules.ClubCap)
		}
		positionCounter[member.Position]++
	}

	for _, pos := range player.OrderedPositions {
		if positionCounter[pos] != rules.Quotas[pos] {
			return fmt.Errorf("%w: pos=%s quota=%d current=%d", ErrInvalidSquad, pos, rules.Quotas[pos], positionCounter[pos])
		}
	}

	return nil
}

// ValidateLineup checks starters against the formation minimums. The
// goalkeeper count must match its minimum exactly.
func ValidateLineup(starters []player.Candidate, rules Rules) error {
	if len(starters) != rules.Starters {
		return fmt.Errorf("%w: expected %d starters, got %d", ErrInvalidSquad, rules.Starters, len(starters))
	}

	counter := make(map[player.Position]int)
	for _, s := range starters {
		counter[s.Position]++
	}
	if counter[player.PositionGoalkeeper] != rules.FormationMin[player.PositionGoalkeeper] {
		return fmt.Errorf("%w: goalkeepers=%d want=%d", ErrInvalidSquad, counter[player.PositionGoalkeeper], rules.FormationMin[player.PositionGoalkeeper])
	}
	for pos, minRequired := range rules.FormationMin {
		if counter[pos] < minRequired {
			return fmt.Errorf("%w: pos=%s min=%d current=%d", ErrInvalidSquad, pos, minRequired, counter[pos])
		}
	}

	return nil
}
