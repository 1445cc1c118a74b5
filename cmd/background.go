package cmd

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// background runs the long-lived loops that sit next to the HTTP server.
// Stop cancels them and blocks until every loop has returned, so nothing
// touches the store after it is closed.
type background struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	logger *zap.Logger
}

func newBackground(parent context.Context, logger *zap.Logger) *background {
	ctx, cancel := context.WithCancel(parent)
	return &background{ctx: ctx, cancel: cancel, logger: logger}
}

// Go starts fn. A loop that fails is logged; it never takes the others down.
func (b *background) Go(name string, fn func(context.Context) error) {
	b.group.Go(func() error {
		if err := fn(b.ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("Background loop exited", zap.String("loop", name), zap.Error(err))
		}
		return nil
	})
}

func (b *background) Stop() {
	b.cancel()
	_ = b.group.Wait()
}
