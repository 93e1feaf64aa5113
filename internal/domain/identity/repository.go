package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// UserRepository persists dealership staff.
type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, int64, error)
	// FindTeam returns the users whose ManagerID is managerID.
	FindTeam(ctx context.Context, tenantID, managerID uuid.UUID) ([]User, error)
	// FindLeadRecipients returns active salespeople accepting leads, ordered by ID.
	FindLeadRecipients(ctx context.Context, tenantID uuid.UUID) ([]User, error)
	FindByRole(ctx context.Context, tenantID uuid.UUID, role Role) ([]User, error)
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	Save(ctx context.Context, user *User) error
}

// TenantRepository persists dealerships.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	FindByInboundKeyHash(ctx context.Context, hash string) (*Tenant, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// ListActiveIDs returns every active tenant, for background jobs.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, tenant *Tenant) error
}
