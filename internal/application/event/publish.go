// Package event holds helpers for handing aggregate events to the bus.
package event

import (
	"context"

	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Aggregate is anything that buffers domain events until it is saved.
type Aggregate interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// PublishPending hands the aggregate's buffered events to pub and clears
// them. The aggregate is already persisted, so a publish failure is logged
// rather than returned.
func PublishPending(ctx context.Context, pub shared.EventPublisher, log *zap.Logger, agg Aggregate) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish domain events",
			zap.String("request_id", logger.GetRequestID(ctx)),
			zap.Int("count", len(events)),
			zap.String("first_type", events[0].EventType()),
			zap.Error(err),
		)
	}
}
