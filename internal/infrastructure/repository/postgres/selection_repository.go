package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/player"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

type SelectionRepository struct {
	db *sqlx.DB
}

func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

func (r *SelectionRepository) GetByRound(ctx context.Context, round int) (selection.Selection, bool, error) {
	const selectionQuery = `
SELECT round, strategy, squad_score, starter_score, created_at
FROM selections
WHERE round = $1`

	var row selectionTableModel
	if err := r.db.GetContext(ctx, &row, selectionQuery, round); err != nil {
		if isNotFound(err) {
			return selection.Selection{}, false, nil
		}
		return selection.Selection{}, false, fmt.Errorf("get selection: %w", err)
	}

	const membersQuery = `
SELECT round, player_id, name, position, club, predicted_score, is_starter, bench_rank, sort_order, actual_score
FROM selection_members
WHERE round = $1
ORDER BY sort_order`

	var memberRows []selectionMemberTableModel
	if err := r.db.SelectContext(ctx, &memberRows, membersQuery, round); err != nil {
		return selection.Selection{}, false, fmt.Errorf("list selection members: %w", err)
	}

	members := make([]selection.Member, 0, len(memberRows))
	for _, m := range memberRows {
		members = append(members, memberFromRow(m))
	}

	return selection.Selection{
		Round:        row.Round,
		Strategy:     selection.Strategy(row.Strategy),
		Members:      members,
		SquadScore:   row.SquadScore,
		StarterScore: row.StarterScore,
		CreatedAt:    row.CreatedAt,
	}, true, nil
}

// Upsert replaces the round's selection and its members in one transaction.
// Members keep the order they were assembled in.
func (r *SelectionRepository) Upsert(ctx context.Context, item selection.Selection) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for selection upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsertSelectionQuery = `
INSERT INTO selections (round, strategy, squad_score, starter_score, created_at)
VALUES (:round, :strategy, :squad_score, :starter_score, :created_at)
ON CONFLICT (round)
DO UPDATE SET
    strategy = EXCLUDED.strategy,
    squad_score = EXCLUDED.squad_score,
    starter_score = EXCLUDED.starter_score,
    created_at = EXCLUDED.created_at`

	if _, err := tx.NamedExecContext(ctx, upsertSelectionQuery, selectionTableModel{
		Round:        item.Round,
		Strategy:     string(item.Strategy),
		SquadScore:   item.SquadScore,
		StarterScore: item.StarterScore,
		CreatedAt:    item.CreatedAt,
	}); err != nil {
		return fmt.Errorf("upsert selection round=%d: %w", item.Round, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM selection_members WHERE round = $1`, item.Round); err != nil {
		return fmt.Errorf("clear selection members round=%d: %w", item.Round, err)
	}

	if len(item.Members) > 0 {
		const insertMembersQuery = `
INSERT INTO selection_members (
    round,
    player_id,
    name,
    position,
    club,
    predicted_score,
    is_starter,
    bench_rank,
    sort_order,
    actual_score
) VALUES (:round, :player_id, :name, :position, :club, :predicted_score, :is_starter, :bench_rank, :sort_order, :actual_score)`

		rows := make([]selectionMemberTableModel, 0, len(item.Members))
		for i, m := range item.Members {
			rows = append(rows, memberToRow(item.Round, i, m))
		}
		if _, err := tx.NamedExecContext(ctx, insertMembersQuery, rows); err != nil {
			return fmt.Errorf("insert selection members round=%d: %w", item.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit selection upsert tx: %w", err)
	}

	return nil
}

func (r *SelectionRepository) UpdateActualScores(ctx context.Context, round int, actual map[int64]float64) error {
	if len(actual) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(actual))
	scores := make([]float64, 0, len(actual))
	for id, score := range actual {
		ids = append(ids, id)
		scores = append(scores, score)
	}

	const query = `
UPDATE selection_members AS m
SET actual_score = u.score
FROM unnest($2::bigint[], $3::double precision[]) AS u(player_id, score)
WHERE m.round = $1
  AND m.player_id = u.player_id`

	if _, err := r.db.ExecContext(ctx, query, round, pq.Array(ids), pq.Array(scores)); err != nil {
		return fmt.Errorf("update actual scores round=%d: %w", round, err)
	}
	return nil
}

func memberFromRow(row selectionMemberTableModel) selection.Member {
	m := selection.Member{
		Candidate: player.Candidate{
			ID:             row.PlayerID,
			Name:           row.Name,
			Position:       player.Position(row.Position),
			Club:           row.Club,
			PredictedScore: row.PredictedScore,
		},
		IsStarter: row.IsStarter,
		BenchRank: row.BenchRank,
	}
	if row.ActualScore.Valid {
		score := row.ActualScore.Float64
		m.ActualScore = &score
	}
	return m
}

func memberToRow(round, order int, m selection.Member) selectionMemberTableModel {
	row := selectionMemberTableModel{
		Round:          round,
		PlayerID:       m.ID,
		Name:           m.Name,
		Position:       string(m.Position),
		Club:           m.Club,
		PredictedScore: m.PredictedScore,
		IsStarter:      m.IsStarter,
		BenchRank:      m.BenchRank,
		SortOrder:      order,
	}
	if m.ActualScore != nil {
		row.ActualScore = sql.NullFloat64{Float64: *m.ActualScore, Valid: true}
	}
	return row
}
