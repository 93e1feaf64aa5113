package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// CustomerQuery is a list request: the viewer's visibility always applies,
// search and filters only narrow it.
type CustomerQuery struct {
	Visibility   Visibility
	Filter       shared.Filter
	Stage        Stage
	Source       Source
	AssignedToID *uuid.UUID
	Temperature  Temperature
}

// StageCount is one column of the pipeline summary.
type StageCount struct {
	Stage Stage
	Count int64
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	// FindDuplicate returns the most recently updated customer in the tenant
	// other than excludeID sharing the key's email or phone, or
	// shared.ErrNotFound. Pass uuid.Nil to exclude nothing.
	FindDuplicate(ctx context.Context, tenantID uuid.UUID, key DuplicateKey, excludeID uuid.UUID) (*Customer, error)
	// List returns one page of customers matching the query plus the total.
	List(ctx context.Context, tenantID uuid.UUID, q CustomerQuery) ([]Customer, int64, error)
	// ListAll is List without pagination, for exports and the board.
	ListAll(ctx context.Context, tenantID uuid.UUID, q CustomerQuery) ([]Customer, error)
	CountByStage(ctx context.Context, tenantID uuid.UUID, vis Visibility) ([]StageCount, error)
	CountCreatedSince(ctx context.Context, tenantID uuid.UUID, vis Visibility, since time.Time) (int64, error)
	CountByTemperature(ctx context.Context, tenantID uuid.UUID, vis Visibility, t Temperature) (int64, error)
	Save(ctx context.Context, c *Customer) error
	// SaveWithLock saves only if the stored version still equals c.Version,
	// then advances it. Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ActivityRepository persists customer timeline entries.
type ActivityRepository interface {
	Append(ctx context.Context, a *Activity) error
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit int) ([]Activity, error)
}
