package refcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/reference"
)

// WrapLRU caches the rows of each categorical group. A non-positive size or
// ttl disables caching and returns src unchanged.
func WrapLRU(src reference.Source, size int, ttl time.Duration) reference.Source {
	if src == nil || size <= 0 || ttl <= 0 {
		return src
	}
	return &LRUSource{
		next:  src,
		cache: expirable.NewLRU[string, []model.ReferenceRow](size, nil, ttl),
	}
}

type LRUSource struct {
	next  reference.Source
	cache *expirable.LRU[string, []model.ReferenceRow]
}

func (l *LRUSource) Rows(ctx context.Context, keys model.ReferenceKeys) ([]model.ReferenceRow, error) {
	cacheKey := keys.CacheKey()
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("reference cache hit", zap.String("group", cacheKey))
		return cloneRows(cached), nil
	}
	rows, err := l.next.Rows(ctx, keys)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneRows(rows))
	return rows, nil
}

// Refresh drops every cached group.
func (l *LRUSource) Refresh(ctx context.Context) error {
	n := l.cache.Len()
	l.cache.Purge()
	logutil.GetLogger(ctx).Debug("reference cache purged", zap.Int("groups", n))
	return nil
}

func cloneRows(rows []model.ReferenceRow) []model.ReferenceRow {
	if len(rows) == 0 {
		return []model.ReferenceRow{}
	}
	out := make([]model.ReferenceRow, len(rows))
	for i, r := range rows {
		out[i] = r
		out[i].SpecialConditions = append([]string(nil), r.SpecialConditions...)
	}
	return out
}
