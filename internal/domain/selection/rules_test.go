package selection

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
)

func validSquad() []player.Candidate {
	return []player.Candidate{
		{ID: 1, Club: "ARS", Position: player.PositionGoalkeeper, PredictedScore: 5},
		{ID: 2, Club: "CHE", Position: player.PositionGoalkeeper, PredictedScore: 3},
		{ID: 3, Club: "ARS", Position: player.PositionDefender, PredictedScore: 6},
		{ID: 4, Club: "CHE", Position: player.PositionDefender, PredictedScore: 5},
		{ID: 5, Club: "LIV", Position: player.PositionDefender, PredictedScore: 4},
		{ID: 6, Club: "MCI", Position: player.PositionDefender, PredictedScore: 3},
		{ID: 7, Club: "NEW", Position: player.PositionDefender, PredictedScore: 2},
		{ID: 8, Club: "ARS", Position: player.PositionMidfielder, PredictedScore: 9},
		{ID: 9, Club: "CHE", Position: player.PositionMidfielder, PredictedScore: 7},
		{ID: 10, Club: "LIV", Position: player.PositionMidfielder, PredictedScore: 6},
		{ID: 11, Club: "MCI", Position: player.PositionMidfielder, PredictedScore: 4},
		{ID: 12, Club: "NEW", Position: player.PositionMidfielder, PredictedScore: 1},
		{ID: 13, Club: "LIV", Position: player.PositionForward, PredictedScore: 8},
		{ID: 14, Club: "MCI", Position: player.PositionForward, PredictedScore: 7},
		{ID: 15, Club: "NEW", Position: player.PositionForward, PredictedScore: 2},
	}
}

func TestValidateSquad(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name      string
		mutate    func([]player.Candidate, *Rules) []player.Candidate
		targetErr error
	}{
		{
			name: "valid squad",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				return squad
			},
		},
		{
			name: "invalid size",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				return squad[:14]
			},
			targetErr: ErrInvalidSquad,
		},
		{
			name: "club cap exceeded",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				squad[4].Club = "ARS"
				return squad
			},
			targetErr: ErrInvalidSquad,
		},
		{
			name: "quota mismatch",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				squad[6].Position = player.PositionForward
				return squad
			},
			targetErr: ErrInvalidSquad,
		},
		{
			name: "duplicate member",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				squad[1].ID = 1
				return squad
			},
			targetErr: ErrDuplicateCandidate,
		},
		{
			name: "unknown position",
			mutate: func(squad []player.Candidate, _ *Rules) []player.Candidate {
				squad[0].Position = player.Position("UNK")
				return squad
			},
			targetErr: ErrUnknownPosition,
		},
		{
			name: "looser cap accepts four from one club",
			mutate: func(squad []player.Candidate, cfg *Rules) []player.Candidate {
				squad[4].Club = "ARS"
				cfg.ClubCap = 4
				return squad
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := rules.Clone()
			squad := tt.mutate(validSquad(), &cfg)

			err := ValidateSquad(squad, cfg)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected error %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rules)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Rules) {}},
		{name: "zero club cap", mutate: func(r *Rules) { r.ClubCap = 0 }, wantErr: true},
		{name: "too many starters", mutate: func(r *Rules) { r.Starters = 16 }, wantErr: true},
		{name: "minimum above quota", mutate: func(r *Rules) { r.FormationMin[player.PositionForward] = 4 }, wantErr: true},
		{name: "minimums above starters", mutate: func(r *Rules) { r.Starters = 6 }, wantErr: true},
		{name: "negative quota", mutate: func(r *Rules) { r.Quotas[player.PositionDefender] = -1 }, wantErr: true},
		{name: "unknown position", mutate: func(r *Rules) { r.Quotas[player.Position("SW")] = 1 }, wantErr: true},
		{name: "starters need second keeper", mutate: func(r *Rules) { r.Starters = 15 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)

			err := rules.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidRules) {
				t.Fatalf("expected ErrInvalidRules, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestCheckPool(t *testing.T) {
	pool := validSquad()
	if err := CheckPool(pool, DefaultRules()); err != nil {
		t.Fatalf("expected feasible pool, got %v", err)
	}

	err := CheckPool(pool[1:], DefaultRules())
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible with one goalkeeper, got %v", err)
	}
}

func TestValidateCandidates(t *testing.T) {
	pool := validSquad()
	if err := ValidateCandidates(pool); err != nil {
		t.Fatalf("expected valid table, got %v", err)
	}

	pool = append(pool, pool[3])
	if err := ValidateCandidates(pool); !errors.Is(err, ErrDuplicateCandidate) {
		t.Fatalf("expected ErrDuplicateCandidate, got %v", err)
	}
}

func TestValidateLineup(t *testing.T) {
	squad := validSquad()
	lineup := func(parts ...[]player.Candidate) []player.Candidate {
		var out []player.Candidate
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	valid := lineup(squad[0:1], squad[2:7], squad[7:11], squad[12:13])
	if err := ValidateLineup(valid, DefaultRules()); err != nil {
		t.Fatalf("expected valid lineup, got %v", err)
	}

	twoKeepers := lineup(squad[0:2], squad[2:7], squad[7:10], squad[12:13])
	if err := ValidateLineup(twoKeepers, DefaultRules()); !errors.Is(err, ErrInvalidSquad) {
		t.Fatalf("expected ErrInvalidSquad for two goalkeepers, got %v", err)
	}

	noForward := lineup(squad[0:1], squad[2:7], squad[7:12])
	if err := ValidateLineup(noForward, DefaultRules()); !errors.Is(err, ErrInvalidSquad) {
		t.Fatalf("expected ErrInvalidSquad without a forward, got %v", err)
	}
}
