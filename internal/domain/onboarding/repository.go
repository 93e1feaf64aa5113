package onboarding

import (
	"context"

	"github.com/google/uuid"
)

// ChecklistRepository persists onboarding checklists.
type ChecklistRepository interface {
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*Checklist, error)
	// ListByUsers returns checklists for the given users, or all when userIDs is nil.
	ListByUsers(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID) ([]Checklist, error)
	Save(ctx context.Context, c *Checklist) error
}
