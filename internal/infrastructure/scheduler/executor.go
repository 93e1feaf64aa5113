package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// QuoteExpirer persists the expired status of lapsed quotes.
type QuoteExpirer interface {
	ExpireLapsed(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// CustomerRescorer refreshes lead scores that age with time.
type CustomerRescorer interface {
	RescoreAll(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// MaintenanceExecutor dispatches jobs to the application services.
type MaintenanceExecutor struct {
	quotes    QuoteExpirer
	customers CustomerRescorer
}

// NewMaintenanceExecutor creates a MaintenanceExecutor.
func NewMaintenanceExecutor(quotes QuoteExpirer, customers CustomerRescorer) *MaintenanceExecutor {
	return &MaintenanceExecutor{quotes: quotes, customers: customers}
}

// Execute implements JobExecutor.
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) (int, error) {
	switch job.Kind {
	case JobQuoteExpiry:
		return e.quotes.ExpireLapsed(ctx, job.TenantID)
	case JobCustomerRescore:
		return e.customers.RescoreAll(ctx, job.TenantID)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
}
