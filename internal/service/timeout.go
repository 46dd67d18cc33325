package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// withTimeout bounds one call. A non-positive budget leaves ctx untouched.
func withTimeout(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// mapTimeout turns an exceeded budget into ErrTimeout.
func mapTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) || dbutil.IsStatementTimeout(err) {
		return fmt.Errorf("%w: %v", appErr.ErrTimeout, err)
	}
	return err
}
