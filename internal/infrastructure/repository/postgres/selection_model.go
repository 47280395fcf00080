package postgres

import (
	"database/sql"
	"time"
)

type selectionTableModel struct {
	Round        int       `db:"round"`
	Strategy     string    `db:"strategy"`
	SquadScore   float64   `db:"squad_score"`
	StarterScore float64   `db:"starter_score"`
	CreatedAt    time.Time `db:"created_at"`
}

type selectionMemberTableModel struct {
	Round          int             `db:"round"`
	PlayerID       int64           `db:"player_id"`
	Name           string          `db:"name"`
	Position       string          `db:"position"`
	Club           string          `db:"club"`
	PredictedScore float64         `db:"predicted_score"`
	IsStarter      bool            `db:"is_starter"`
	BenchRank      int             `db:"bench_rank"`
	SortOrder      int             `db:"sort_order"`
	ActualScore    sql.NullFloat64 `db:"actual_score"`
}
