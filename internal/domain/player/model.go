package player

import (
	"fmt"
	"strings"
)

// Position represents football position categories used in fantasy rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// OrderedPositions lists positions in pitch order, goalkeeper first.
var OrderedPositions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

var positionByElementType = map[int]Position{
	1: PositionGoalkeeper,
	2: PositionDefender,
	3: PositionMidfielder,
	4: PositionForward,
}

// PositionFromElementType maps the data provider's numeric element type.
func PositionFromElementType(elementType int) (Position, bool) {
	pos, ok := positionByElementType[elementType]
	return pos, ok
}

// ParsePosition accepts the short code or the long name, case-insensitive.
func ParsePosition(raw string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "GK", "GKP", "GOALKEEPER":
		return PositionGoalkeeper, nil
	case "DEF", "DEFENDER":
		return PositionDefender, nil
	case "MID", "MIDFIELDER":
		return PositionMidfielder, nil
	case "FWD", "FORWARD":
		return PositionForward, nil
	default:
		return "", fmt.Errorf("invalid player position: %q", raw)
	}
}

// Rank orders positions for reporting, goalkeeper first.
func (p Position) Rank() int {
	for i, pos := range OrderedPositions {
		if pos == p {
			return i
		}
	}
	return len(OrderedPositions)
}

// Candidate is one scored player eligible for selection in a round.
type Candidate struct {
	ID             int64
	Name           string
	Position       Position
	Club           string
	PredictedScore float64
}

func (c Candidate) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("candidate id must be greater than zero")
	}
	if _, ok := AllPositions[c.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", c.Position)
	}
	if strings.TrimSpace(c.Club) == "" {
		return fmt.Errorf("club is required for candidate %d", c.ID)
	}

	return nil
}

// Metadata is the provider's per-player record used to build candidates.
type Metadata struct {
	ID                       int64
	Name                     string
	ElementType              int
	Club                     string
	Status                   string
	ChanceOfPlayingNextRound *int
}

// Prediction is one model output row for a round.
type Prediction struct {
	PlayerID       int64
	PlayerName     string
	Round          int
	PredictedScore *float64
}

// Outcome is the realized score of a player after the round was played.
type Outcome struct {
	PlayerID       int64
	PredictedScore *float64
	ActualScore    float64
}
