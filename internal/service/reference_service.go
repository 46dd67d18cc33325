package service

import (
	"context"
	"strings"
	"time"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/reference"
)

type ReferenceService struct {
	engine  *reference.Engine
	timeout time.Duration
}

func NewReferenceService(engine *reference.Engine, timeout time.Duration) *ReferenceService {
	return &ReferenceService{engine: engine, timeout: timeout}
}

// Lookup resolves design parameters for the categorical keys at the target
// ceiling height.
func (s *ReferenceService) Lookup(ctx context.Context, keys model.ReferenceKeys, targetHeightFt float64, tolerance *float64) (*model.InterpolationResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.engine.Lookup(ctx, keys, targetHeightFt, tolerance)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return res, nil
}

// Interpolate resolves within one reference table.
func (s *ReferenceService) Interpolate(ctx context.Context, tableID string, targetHeightFt float64) (*model.InterpolationResult, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, appErr.Invalidf("table_id is required")
	}
	return s.Lookup(ctx, model.ReferenceKeys{TableID: tableID}, targetHeightFt, nil)
}

func (s *ReferenceService) Options(ctx context.Context) (*model.ReferenceOptions, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	opts, err := s.engine.Options(ctx)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return opts, nil
}
