package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	basecache "github.com/riskibarqy/fantasy-autopick/internal/platform/cache"
)

const selectionKeyPrefix = "selection:round:"

type cachedSelection struct {
	value  selection.Selection
	exists bool
}

// SelectionRepository caches round reads in front of another repository.
// Writes go through and drop the round's entry.
type SelectionRepository struct {
	next  selection.Repository
	cache *basecache.Store[cachedSelection]
}

func NewSelectionRepository(next selection.Repository, ttl time.Duration) *SelectionRepository {
	return &SelectionRepository{next: next, cache: basecache.NewStore[cachedSelection](ttl)}
}

func (r *SelectionRepository) GetByRound(ctx context.Context, round int) (selection.Selection, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, selectionKey(round), func(ctx context.Context) (cachedSelection, error) {
		item, exists, err := r.next.GetByRound(ctx, round)
		if err != nil {
			return cachedSelection{}, err
		}
		return cachedSelection{value: item.Clone(), exists: exists}, nil
	})
	if err != nil {
		return selection.Selection{}, false, err
	}
	return cached.value.Clone(), cached.exists, nil
}

func (r *SelectionRepository) Upsert(ctx context.Context, item selection.Selection) error {
	defer r.cache.Delete(ctx, selectionKey(item.Round))
	return r.next.Upsert(ctx, item)
}

func (r *SelectionRepository) UpdateActualScores(ctx context.Context, round int, actual map[int64]float64) error {
	defer r.cache.Delete(ctx, selectionKey(round))
	return r.next.UpdateActualScores(ctx, round, actual)
}

func selectionKey(round int) string {
	return selectionKeyPrefix + strconv.Itoa(round)
}
