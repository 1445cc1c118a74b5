// Package notification fans reservation lifecycle events out to subscribers.
package notification

import (
	"context"

	"slotbook/models"
)

// Publisher delivers a lifecycle event. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, event models.ReservationEvent) error
}

// Multi publishes to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event models.ReservationEvent) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, models.ReservationEvent) error { return nil }
