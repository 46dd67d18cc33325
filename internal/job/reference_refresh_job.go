package job

import (
	"context"
	"fmt"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

// ReferenceRefreshJob reloads the reference table layers in order, innermost
// first. A failing layer stops the run so outer caches keep their rows.
type ReferenceRefreshJob struct {
	layers []Refresher
}

func NewReferenceRefreshJob(layers ...Refresher) *ReferenceRefreshJob {
	return &ReferenceRefreshJob{layers: layers}
}

func (j *ReferenceRefreshJob) Name() string {
	return "reference_refresh"
}

func (j *ReferenceRefreshJob) Run(ctx context.Context) error {
	for i, layer := range j.layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := layer.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh layer %d: %w", i, err)
		}
	}
	return nil
}
