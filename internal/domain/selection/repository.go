package selection

import "context"

// Repository describes selection persistence needs from use cases.
type Repository interface {
	GetByRound(ctx context.Context, round int) (Selection, bool, error)
	Upsert(ctx context.Context, item Selection) error
	UpdateActualScores(ctx context.Context, round int, actual map[int64]float64) error
}
