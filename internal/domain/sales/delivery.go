package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryStatus tracks a sold unit leaving the lot.
type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// Delivery is a closed deal on its way to the customer. Commission is
// settled when it is marked delivered.
type Delivery struct {
	shared.TenantAggregateRoot
	CustomerID   uuid.UUID
	UnitID       uuid.UUID
	RepID        uuid.UUID
	SplitRepID   *uuid.UUID
	SalePrice    decimal.Decimal
	UnitCost     decimal.Decimal
	Fees         decimal.Decimal
	Rule         CommissionRule
	ScheduledFor time.Time
	DeliveredAt  *time.Time
	Status       DeliveryStatus
	Notes        string
	GrossProfit  decimal.Decimal
	Commissions  []CommissionLine
}

// DealTerms are the money fields fixed when a delivery is booked.
type DealTerms struct {
	SalePrice decimal.Decimal
	UnitCost  decimal.Decimal
	Fees      decimal.Decimal
	Rule      CommissionRule
}

// NewDelivery books a delivery for a sold unit.
func NewDelivery(tenantID, customerID, unitID, repID uuid.UUID, splitRepID *uuid.UUID, terms DealTerms, scheduledFor time.Time) (*Delivery, error) {
	if customerID == uuid.Nil || unitID == uuid.Nil || repID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DELIVERY", "Customer, unit and rep are required")
	}
	if splitRepID != nil && *splitRepID == repID {
		splitRepID = nil
	}
	if terms.SalePrice.IsNegative() || terms.UnitCost.IsNegative() || terms.Fees.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DELIVERY", "Deal amounts cannot be negative")
	}
	if !terms.SalePrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_DELIVERY", "Sale price is required")
	}
	if err := terms.Rule.Validate(); err != nil {
		return nil, err
	}
	if scheduledFor.IsZero() {
		return nil, shared.NewDomainError("INVALID_DELIVERY", "Delivery date is required")
	}
	d := &Delivery{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		UnitID:              unitID,
		RepID:               repID,
		SplitRepID:          splitRepID,
		SalePrice:           terms.SalePrice,
		UnitCost:            terms.UnitCost,
		Fees:                terms.Fees,
		Rule:                terms.Rule,
		ScheduledFor:        scheduledFor,
		Status:              DeliveryScheduled,
	}
	d.GrossProfit = GrossProfit(d.SalePrice, d.UnitCost, d.Fees)
	d.AddDomainEvent(NewDeliveryScheduledEvent(d))
	return d, nil
}

// Reschedule moves a scheduled delivery.
func (d *Delivery) Reschedule(at time.Time) error {
	if d.Status != DeliveryScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled deliveries can be rescheduled")
	}
	if at.IsZero() {
		return shared.NewDomainError("INVALID_DELIVERY", "Delivery date is required")
	}
	d.ScheduledFor = at
	d.Touch()
	return nil
}

// Complete marks the unit delivered and settles commission.
func (d *Delivery) Complete(at time.Time) error {
	if d.Status != DeliveryScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled deliveries can be completed")
	}
	d.Status = DeliveryDelivered
	d.DeliveredAt = &at
	d.GrossProfit = GrossProfit(d.SalePrice, d.UnitCost, d.Fees)
	d.Commissions = CalculateCommission(d.GrossProfit, d.Rule, d.RepID, d.SplitRepID)
	d.UpdatedAt = at
	d.AddDomainEvent(NewDeliveryCompletedEvent(d))
	return nil
}

// Cancel drops a scheduled delivery.
func (d *Delivery) Cancel(reason string) error {
	if d.Status != DeliveryScheduled {
		return shared.NewDomainError("INVALID_STATE", "Only scheduled deliveries can be cancelled")
	}
	d.Status = DeliveryCancelled
	if reason != "" {
		d.Notes = reason
	}
	d.Touch()
	return nil
}

// TotalCommission sums the settled commission lines.
func (d *Delivery) TotalCommission() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Commissions {
		total = total.Add(l.Amount)
	}
	return total
}

// InvolvesRep reports whether repID earns on this delivery.
func (d *Delivery) InvolvesRep(repID uuid.UUID) bool {
	return d.RepID == repID || (d.SplitRepID != nil && *d.SplitRepID == repID)
}
