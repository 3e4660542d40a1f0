package hint

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/reel-cortex/core"
)

// FallbackResolver bounds the inner resolver by a deadline and substitutes a local insight on failure
type FallbackResolver struct {
	inner   Resolver
	local   *LocalResolver
	timeout time.Duration
	log     *zap.Logger
}

// NewFallbackResolver wraps inner; a nil local uses the default offline table
func NewFallbackResolver(inner Resolver, local *LocalResolver, timeout time.Duration, log *zap.Logger) *FallbackResolver {
	if local == nil {
		local = NewLocalResolver(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackResolver{inner: inner, local: local, timeout: timeout, log: log}
}

type outcome struct {
	res Result
	err error
}

// Resolve returns the inner hint or a local one; it fails only if ctx was cancelled by the caller
func (f *FallbackResolver) Resolve(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	tctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// Buffered so a late inner result never blocks the worker
	done := make(chan outcome, 1)
	core.Go(func() {
		res, err := f.inner.Resolve(tctx, req)
		done <- outcome{res: res, err: err}
	})

	var cause error
	select {
	case o := <-done:
		if o.err == nil {
			return o.res, nil
		}
		cause = o.err
	case <-tctx.Done():
		cause = fmt.Errorf("hint deadline %s: %w", f.timeout, tctx.Err())
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res, _ := f.local.Resolve(ctx, req)
	res.Source = SourceFallback
	res.Cause = cause
	res.Latency = time.Since(start)
	f.log.Warn("hint fallback", zap.Error(cause), zap.Duration("latency", res.Latency))
	return res, nil
}
