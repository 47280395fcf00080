package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

type SelectionRepository struct {
	mu    sync.RWMutex
	items map[int]selection.Selection
}

func NewSelectionRepository() *SelectionRepository {
	return &SelectionRepository{items: make(map[int]selection.Selection)}
}

func (r *SelectionRepository) GetByRound(_ context.Context, round int) (selection.Selection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[round]
	if !ok {
		return selection.Selection{}, false, nil
	}

	return item.Clone(), true, nil
}

func (r *SelectionRepository) Upsert(_ context.Context, item selection.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.Round] = item.Clone()
	return nil
}

// UpdateActualScores annotates members of the stored round. IDs outside the
// squad are ignored.
func (r *SelectionRepository) UpdateActualScores(_ context.Context, round int, actual map[int64]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[round]
	if !ok {
		return fmt.Errorf("selection round=%d not found", round)
	}

	for i, m := range item.Members {
		score, ok := actual[m.ID]
		if !ok {
			continue
		}
		item.Members[i].ActualScore = &score
	}
	r.items[round] = item
	return nil
}
