package sales

import (
	"context"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/inventory"
)

// DealTransaction runs a unit of work over the repositories a deal touches.
// If fn returns an error every change is rolled back.
type DealTransaction interface {
	Execute(ctx context.Context, fn func(repos DealRepositories) error) error
}

// DealRepositories are scoped to one DealTransaction.
type DealRepositories interface {
	Deliveries() DeliveryRepository
	Units() inventory.UnitRepository
	Customers() crm.CustomerRepository
	Activities() crm.ActivityRepository
}
