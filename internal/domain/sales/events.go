package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeDelivery is the aggregate type for delivery events
const AggregateTypeDelivery = "Delivery"

// Delivery domain event types
const (
	EventTypeDeliveryScheduled = "DeliveryScheduled"
	EventTypeDeliveryCompleted = "DeliveryCompleted"
)

// DeliveryScheduledEvent is published when a delivery is booked
type DeliveryScheduledEvent struct {
	shared.BaseDomainEvent
	CustomerID   uuid.UUID `json:"customer_id"`
	UnitID       uuid.UUID `json:"unit_id"`
	RepID        uuid.UUID `json:"rep_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDeliveryScheduledEvent creates a new DeliveryScheduledEvent
func NewDeliveryScheduledEvent(d *Delivery) *DeliveryScheduledEvent {
	return &DeliveryScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryScheduled, AggregateTypeDelivery, d.ID, d.TenantID),
		CustomerID:      d.CustomerID,
		UnitID:          d.UnitID,
		RepID:           d.RepID,
		ScheduledFor:    d.ScheduledFor,
	}
}

// DeliveryCompletedEvent is published when a unit is handed over
type DeliveryCompletedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	UnitID     uuid.UUID       `json:"unit_id"`
	RepID      uuid.UUID       `json:"rep_id"`
	Commission decimal.Decimal `json:"commission"`
}

// NewDeliveryCompletedEvent creates a new DeliveryCompletedEvent
func NewDeliveryCompletedEvent(d *Delivery) *DeliveryCompletedEvent {
	return &DeliveryCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryCompleted, AggregateTypeDelivery, d.ID, d.TenantID),
		CustomerID:      d.CustomerID,
		UnitID:          d.UnitID,
		RepID:           d.RepID,
		Commission:      d.TotalCommission(),
	}
}
