package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/onboarding"
	"github.com/remotive/saleshub/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormChecklistRepository implements onboarding.ChecklistRepository using GORM
type GormChecklistRepository struct {
	db *gorm.DB
}

// NewGormChecklistRepository creates a new GormChecklistRepository
func NewGormChecklistRepository(db *gorm.DB) *GormChecklistRepository {
	return &GormChecklistRepository{db: db}
}

// FindByUser finds a user's checklist
func (r *GormChecklistRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*onboarding.Checklist, error) {
	var model models.ChecklistModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ListByUsers returns checklists for userIDs, or for the whole tenant when
// userIDs is nil.
func (r *GormChecklistRepository) ListByUsers(ctx context.Context, tenantID uuid.UUID, userIDs []uuid.UUID) ([]onboarding.Checklist, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []onboarding.Checklist{}, nil
	}
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if userIDs != nil {
		query = query.Where("user_id IN ?", userIDs)
	}
	var rows []models.ChecklistModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]onboarding.Checklist, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a checklist
func (r *GormChecklistRepository) Save(ctx context.Context, c *onboarding.Checklist) error {
	return r.db.WithContext(ctx).Save(models.ChecklistModelFromDomain(c)).Error
}
