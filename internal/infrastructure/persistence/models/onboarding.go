package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/onboarding"
)

// ChecklistModel stores a user's onboarding progress; completed steps are a
// JSON object of step to completion time.
type ChecklistModel struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Completed   map[string]time.Time `gorm:"serializer:json;type:text"`
	CreatedAt   time.Time            `gorm:"not null"`
	UpdatedAt   time.Time            `gorm:"not null"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (ChecklistModel) TableName() string {
	return "onboarding_checklists"
}

// ToDomain converts the persistence model to a domain Checklist.
func (m *ChecklistModel) ToDomain() *onboarding.Checklist {
	done := make(map[onboarding.Step]time.Time, len(m.Completed))
	for k, v := range m.Completed {
		done[onboarding.Step(k)] = v
	}
	return &onboarding.Checklist{
		ID:          m.ID,
		TenantID:    m.TenantID,
		UserID:      m.UserID,
		Completed:   done,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CompletedAt: m.CompletedAt,
	}
}

// ChecklistModelFromDomain creates a persistence model from a domain Checklist.
func ChecklistModelFromDomain(c *onboarding.Checklist) *ChecklistModel {
	done := make(map[string]time.Time, len(c.Completed))
	for k, v := range c.Completed {
		done[string(k)] = v
	}
	return &ChecklistModel{
		ID:          c.ID,
		TenantID:    c.TenantID,
		UserID:      c.UserID,
		Completed:   done,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		CompletedAt: c.CompletedAt,
	}
}

// All returns every model, in dependency order, for test auto-migration.
func All() []any {
	return []any{
		&TenantModel{}, &UserModel{},
		&CustomerModel{}, &ActivityModel{},
		&UnitModel{},
		&DeliveryModel{}, &CommissionLineModel{},
		&QuoteModel{}, &QuoteLineModel{},
		&MessageModel{},
		&ChecklistModel{},
	}
}
