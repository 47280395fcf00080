package httpapi

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

var jsonAPI = sonic.ConfigDefault

type selectRoundRequest struct {
	Predictions []predictionDTO `json:"predictions" validate:"required,min=1,dive"`
	Players     []playerDTO     `json:"players" validate:"required,min=1,dive"`
	Rules       *rulesDTO       `json:"rules"`
}

type selectCandidatesRequest struct {
	Candidates []candidateDTO `json:"candidates" validate:"required,min=1,dive"`
	Rules      *rulesDTO      `json:"rules"`
}

type predictionDTO struct {
	PlayerID        int64    `json:"player_id" validate:"required,gt=0"`
	PlayerName      string   `json:"player_name"`
	Round           int      `json:"round" validate:"gte=0"`
	PredictedPoints *float64 `json:"predicted_points"`
}

type playerDTO struct {
	ID                       int64  `json:"id" validate:"required,gt=0"`
	Name                     string `json:"name" validate:"max=100"`
	ElementType              int    `json:"element_type" validate:"gte=0"`
	Club                     string `json:"club" validate:"required"`
	Status                   string `json:"status" validate:"max=16"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round" validate:"omitempty,gte=0,lte=100"`
}

type candidateDTO struct {
	ID              int64   `json:"id" validate:"required,gt=0"`
	Name            string  `json:"name" validate:"max=100"`
	Position        string  `json:"position" validate:"required"`
	Club            string  `json:"club" validate:"required"`
	PredictedPoints float64 `json:"predicted_points"`
}

// rulesDTO overrides the configured rules field by field; omitted fields keep
// the configured value.
type rulesDTO struct {
	Quotas       map[string]int `json:"quotas"`
	ClubCap      *int           `json:"club_cap"`
	FormationMin map[string]int `json:"formation_min"`
	Starters     *int           `json:"starters"`
}

type selectionDTO struct {
	Round         int         `json:"round,omitempty"`
	Strategy      string      `json:"strategy"`
	SquadPoints   float64     `json:"squad_points"`
	StarterPoints float64     `json:"starter_points"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
	Members       []memberDTO `json:"members"`
}

type memberDTO struct {
	PlayerID        int64    `json:"player_id"`
	PlayerName      string   `json:"player_name"`
	Position        string   `json:"position"`
	Club            string   `json:"club"`
	PredictedPoints float64  `json:"predicted_points"`
	IsStarter       bool     `json:"is_starter"`
	BenchRank       int      `json:"bench_rank,omitempty"`
	ActualPoints    *float64 `json:"actual_points,omitempty"`
}

func (d *rulesDTO) toRules(base selection.Rules) (*selection.Rules, error) {
	if d == nil {
		return nil, nil
	}

	out := base.Clone()
	if len(d.Quotas) > 0 {
		quotas, err := positionCounts(d.Quotas)
		if err != nil {
			return nil, fmt.Errorf("%w: quotas: %v", usecase.ErrInvalidInput, err)
		}
		out.Quotas = quotas
	}
	if len(d.FormationMin) > 0 {
		mins, err := positionCounts(d.FormationMin)
		if err != nil {
			return nil, fmt.Errorf("%w: formation_min: %v", usecase.ErrInvalidInput, err)
		}
		out.FormationMin = mins
	}
	if d.ClubCap != nil {
		out.ClubCap = *d.ClubCap
	}
	if d.Starters != nil {
		out.Starters = *d.Starters
	}
	return &out, nil
}

func positionCounts(raw map[string]int) (map[player.Position]int, error) {
	out := make(map[player.Position]int, len(raw))
	for key, n := range raw {
		pos, err := player.ParsePosition(key)
		if err != nil {
			return nil, err
		}
		out[pos] = n
	}
	return out, nil
}

func predictionsFromDTO(items []predictionDTO, round int) []player.Prediction {
	out := make([]player.Prediction, 0, len(items))
	for _, p := range items {
		r := p.Round
		if r == 0 {
			r = round
		}
		out = append(out, player.Prediction{
			PlayerID:       p.PlayerID,
			PlayerName:     p.PlayerName,
			Round:          r,
			PredictedScore: p.PredictedPoints,
		})
	}
	return out
}

func playersFromDTO(items []playerDTO) []player.Metadata {
	out := make([]player.Metadata, 0, len(items))
	for _, p := range items {
		out = append(out, player.Metadata{
			ID:                       p.ID,
			Name:                     p.Name,
			ElementType:              p.ElementType,
			Club:                     p.Club,
			Status:                   p.Status,
			ChanceOfPlayingNextRound: p.ChanceOfPlayingNextRound,
		})
	}
	return out
}

func candidatesFromDTO(items []candidateDTO) ([]player.Candidate, error) {
	out := make([]player.Candidate, 0, len(items))
	for _, c := range items {
		pos, err := player.ParsePosition(c.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: candidate %d: %v", usecase.ErrInvalidInput, c.ID, err)
		}
		out = append(out, player.Candidate{
			ID:             c.ID,
			Name:           c.Name,
			Position:       pos,
			Club:           c.Club,
			PredictedScore: c.PredictedPoints,
		})
	}
	return out, nil
}

func selectionToDTO(item selection.Selection) selectionDTO {
	out := selectionDTO{
		Round:         item.Round,
		Strategy:      string(item.Strategy),
		SquadPoints:   item.SquadScore,
		StarterPoints: item.StarterScore,
		Members:       make([]memberDTO, 0, len(item.Members)),
	}
	if !item.CreatedAt.IsZero() {
		createdAt := item.CreatedAt
		out.CreatedAt = &createdAt
	}
	for _, m := range item.Members {
		out.Members = append(out.Members, memberDTO{
			PlayerID:        m.ID,
			PlayerName:      m.Name,
			Position:        string(m.Position),
			Club:            m.Club,
			PredictedPoints: m.PredictedScore,
			IsStarter:       m.IsStarter,
			BenchRank:       m.BenchRank,
			ActualPoints:    m.ActualScore,
		})
	}
	return out
}
