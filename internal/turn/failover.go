package turn

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// FailoverAnalyzer prefers the primary analyzer and switches to the
// fallback when the primary fails. Once the fallback succeeds it stays
// active until it fails itself; then the primary is retried.
type FailoverAnalyzer struct {
	fallbackActive atomic.Bool
	primary        Analyzer
	fallback       Analyzer
	log            *logrus.Logger
}

func NewFailoverAnalyzer(primary, fallback Analyzer, log *logrus.Logger) *FailoverAnalyzer {
	return &FailoverAnalyzer{primary: primary, fallback: fallback, log: log}
}

func (a *FailoverAnalyzer) Analyze(ctx context.Context, in Input) (Result, error) {
	if a.fallbackActive.Load() {
		res, fbErr := a.fallback.Analyze(ctx, in)
		if fbErr == nil {
			return res, nil
		}
		// Fallback failed after being active; try primary again.
		res, prErr := a.primary.Analyze(ctx, in)
		if prErr == nil {
			a.fallbackActive.Store(false)
			a.log.Info("turn analyzer recovered to primary")
			return res, nil
		}
		return Result{}, fmt.Errorf("turn fallback failed: %v; turn primary failed: %w", fbErr, prErr)
	}

	res, prErr := a.primary.Analyze(ctx, in)
	if prErr == nil {
		return res, nil
	}

	res, fbErr := a.fallback.Analyze(ctx, in)
	if fbErr != nil {
		return Result{}, fmt.Errorf("turn primary failed: %v; turn fallback failed: %w", prErr, fbErr)
	}
	a.fallbackActive.Store(true)
	a.log.WithError(prErr).Warn("turn analyzer switched to fallback")
	return res, nil
}
