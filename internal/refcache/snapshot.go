// Package refcache serves reference rows from caches: an expirable LRU in
// front of any reference.Source, and an in-memory snapshot loaded from the
// file store.
package refcache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/filestore"
	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// SnapshotSource holds a JSON array of reference rows read from the file
// store. Rows are loaded on first use and replaced atomically by Refresh.
type SnapshotSource struct {
	store filestore.Store
	key   string

	mu     sync.RWMutex
	rows   []model.ReferenceRow
	loaded bool
}

func NewSnapshotSource(store filestore.Store, key string) *SnapshotSource {
	return &SnapshotSource{store: store, key: key}
}

func (s *SnapshotSource) Rows(ctx context.Context, keys model.ReferenceKeys) ([]model.ReferenceRow, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ReferenceRow, 0, len(s.rows))
	for _, row := range s.rows {
		if keys.Matches(row) {
			out = append(out, row)
		}
	}
	return cloneRows(out), nil
}

// Refresh reloads the snapshot. On failure the previous rows stay in place.
func (s *SnapshotSource) Refresh(ctx context.Context) error {
	rows, err := s.load(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("load reference snapshot failed", zap.String("key", s.key), zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.rows = rows
	s.loaded = true
	s.mu.Unlock()
	logutil.GetLogger(ctx).Info("reference snapshot loaded", zap.String("key", s.key), zap.Int("rows", len(rows)))
	return nil
}

func (s *SnapshotSource) load(ctx context.Context) ([]model.ReferenceRow, error) {
	rc, err := s.store.Open(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var rows []model.ReferenceRow
	if err := json.NewDecoder(rc).Decode(&rows); err != nil {
		return nil, appErr.Invalidf("decode snapshot %s: %v", s.key, err)
	}
	for i := range rows {
		if err := validateRow(&rows[i]); err != nil {
			return nil, fmt.Errorf("snapshot row %d: %w", i, err)
		}
	}
	return rows, nil
}

func validateRow(row *model.ReferenceRow) error {
	if row.ID == "" || row.TableID == "" {
		return appErr.Invalidf("id and table_id are required")
	}
	h := row.CeilingHeightFt
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return appErr.Invalidf("row %s has an invalid ceiling height", row.ID)
	}
	var err error
	if row.SystemType, err = model.ParseSystemType(string(row.SystemType)); err != nil {
		return err
	}
	if row.ASRSType, err = model.ParseASRSType(string(row.ASRSType)); err != nil {
		return err
	}
	if row.ContainerType, err = model.ParseContainerType(string(row.ContainerType)); err != nil {
		return err
	}
	if row.CommodityClass, err = model.ParseCommodityClass(string(row.CommodityClass)); err != nil {
		return err
	}
	return nil
}
