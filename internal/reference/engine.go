package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Source yields the reference rows of a categorical group. Empty keys
// select every row.
type Source interface {
	Rows(ctx context.Context, keys model.ReferenceKeys) ([]model.ReferenceRow, error)
}

type Engine struct {
	src     Source
	epsilon float64
}

func NewEngine(src Source, epsilon float64) *Engine {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Engine{src: src, epsilon: epsilon}
}

// Lookup resolves keys at the target ceiling height. tolerance, when set,
// replaces the configured epsilon for the exact-hit test.
func (e *Engine) Lookup(ctx context.Context, keys model.ReferenceKeys, target float64, tolerance *float64) (*model.InterpolationResult, error) {
	eps := e.epsilon
	if tolerance != nil {
		eps = *tolerance
	}
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := e.src.Rows(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load reference rows: %w", err)
	}
	res, err := Resolve(rows, keys, target, eps)
	if err != nil {
		if oor, ok := appErr.AsOutOfRange(err); ok {
			logutil.GetLogger(ctx).Debug("reference target out of range",
				zap.String("group", keys.CacheKey()),
				zap.Float64("target", target),
				zap.String("side", oor.Side),
				zap.Float64("bound", oor.Bound))
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("reference lookup",
		zap.String("group", keys.CacheKey()),
		zap.Float64("target", target),
		zap.String("match", string(res.Match)),
		zap.Int("rows", len(rows)),
		zap.Duration("cost", time.Since(start)))
	return res, nil
}

// Options lists the categorical values available across all rows.
func (e *Engine) Options(ctx context.Context) (*model.ReferenceOptions, error) {
	rows, err := e.src.Rows(ctx, model.ReferenceKeys{})
	if err != nil {
		return nil, fmt.Errorf("load reference rows: %w", err)
	}
	return Options(rows), nil
}

// StaticSource serves a fixed row set.
type StaticSource []model.ReferenceRow

func (s StaticSource) Rows(_ context.Context, keys model.ReferenceKeys) ([]model.ReferenceRow, error) {
	out := make([]model.ReferenceRow, 0, len(s))
	for _, row := range s {
		if keys.Matches(row) {
			out = append(out, row)
		}
	}
	return out, nil
}
