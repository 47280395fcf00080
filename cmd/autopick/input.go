package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
)

var (
	jsonAPI  = sonic.ConfigDefault
	validate = validator.New(validator.WithRequiredStructEnabled())
)

type predictionRow struct {
	PlayerID        int64    `json:"player_id" validate:"required,gt=0"`
	PlayerName      string   `json:"player_name"`
	Round           int      `json:"round" validate:"gte=0"`
	PredictedPoints *float64 `json:"predicted_points"`
}

// playerRow accepts both the service's own field names and the data
// provider's bootstrap element fields (web_name, numeric team).
type playerRow struct {
	ID                       int64  `json:"id" validate:"required,gt=0"`
	Name                     string `json:"name"`
	WebName                  string `json:"web_name"`
	ElementType              int    `json:"element_type" validate:"gte=0"`
	Club                     string `json:"club"`
	Team                     int    `json:"team" validate:"gte=0"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round" validate:"omitempty,gte=0,lte=100"`
}

type bootstrapDocument struct {
	Elements []playerRow `json:"elements"`
}

// readPredictions loads a JSON array of predictions. Rows without a round
// are assigned to round.
func readPredictions(path string, round int) ([]player.Prediction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	var rows []predictionRow
	if err := jsonAPI.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode predictions %s: %w", path, err)
	}

	out := make([]player.Prediction, 0, len(rows))
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("predictions[%d]: %w", i, err)
		}
		if row.Round == 0 {
			row.Round = round
		}
		out = append(out, player.Prediction{
			PlayerID:       row.PlayerID,
			PlayerName:     row.PlayerName,
			Round:          row.Round,
			PredictedScore: row.PredictedPoints,
		})
	}
	return out, nil
}

// readPlayers loads either a JSON array of players or a bootstrap document
// with an "elements" array.
func readPlayers(path string) ([]player.Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read players: %w", err)
	}

	var rows []playerRow
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var doc bootstrapDocument
		if err := jsonAPI.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode players %s: %w", path, err)
		}
		rows = doc.Elements
	} else if err := jsonAPI.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode players %s: %w", path, err)
	}

	out := make([]player.Metadata, 0, len(rows))
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("players[%d]: %w", i, err)
		}
		out = append(out, row.metadata())
	}
	return out, nil
}

func (r playerRow) metadata() player.Metadata {
	name := r.Name
	if name == "" {
		name = r.WebName
	}
	club := r.Club
	if club == "" && r.Team > 0 {
		club = strconv.Itoa(r.Team)
	}

	return player.Metadata{
		ID:                       r.ID,
		Name:                     name,
		ElementType:              r.ElementType,
		Club:                     club,
		Status:                   r.Status,
		ChanceOfPlayingNextRound: r.ChanceOfPlayingNextRound,
	}
}
