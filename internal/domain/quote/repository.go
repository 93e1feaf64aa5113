package quote

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuoteRepository persists quotes with their lines.
type QuoteRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Quote, error)
	// CountCreatedOn returns how many quotes the tenant created on day's date,
	// used to sequence quote numbers.
	CountCreatedOn(ctx context.Context, tenantID uuid.UUID, day time.Time) (int64, error)
	// ListLapsed returns draft and sent quotes whose validity ended before now.
	ListLapsed(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Quote, error)
	Save(ctx context.Context, q *Quote) error
}
