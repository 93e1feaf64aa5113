package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// tenantUniqueIndexes are the per-tenant unique indexes from the SQL
// migrations. Struct tags cannot pair a column with the embedded tenant_id
// or express a partial index.
var tenantUniqueIndexes = []string{
	// One customer per normalized email and per normalized phone.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_customers_email_norm ON customers (tenant_id, email_normalized) WHERE email_normalized <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_customers_phone_norm ON customers (tenant_id, phone_normalized) WHERE phone_normalized <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_tenant_number ON quotes (tenant_id, number)`,
}

// ApplyIndexes creates the indexes AutoMigrate cannot derive from tags.
// Databases migrated with golang-migrate already have them.
func ApplyIndexes(db *gorm.DB) error {
	for _, stmt := range tenantUniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// CustomerModel is the persistence model for a lead/customer. Normalized
// contact columns back duplicate detection and search.
type CustomerModel struct {
	TenantAggregateModel
	Name            string                `gorm:"type:varchar(200);not null"`
	Email           string                `gorm:"type:varchar(200)"`
	Phone           string                `gorm:"type:varchar(50)"`
	EmailNormalized string                `gorm:"type:varchar(200)"`
	PhoneNormalized string                `gorm:"type:varchar(20)"`
	City            string                `gorm:"type:varchar(100)"`
	State           string                `gorm:"type:varchar(50)"`
	Source          crm.Source            `gorm:"type:varchar(30);not null"`
	Stage           crm.Stage             `gorm:"type:varchar(20);not null;index"`
	AssignedToID    *uuid.UUID            `gorm:"type:uuid;index"`
	ManagerID       *uuid.UUID            `gorm:"type:uuid;index"`
	TrailerType     string                `gorm:"type:varchar(100)"`
	StockNumber     string                `gorm:"type:varchar(50)"`
	Budget          decimal.Decimal       `gorm:"type:decimal(12,2);not null;default:0"`
	Payment         crm.PaymentPreference `gorm:"type:varchar(20)"`
	Notes           string                `gorm:"type:text"`
	Tags            []string              `gorm:"serializer:json;type:text"`
	Score           int                   `gorm:"not null;default:0"`
	Temperature     crm.Temperature       `gorm:"type:varchar(10);not null;default:'cold'"`
	InquiryCount    int                   `gorm:"not null;default:1"`
	LastContactedAt *time.Time
	LastInquiryAt   *time.Time
	CreatedByID     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *crm.Customer {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &crm.Customer{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		EmailNormalized:     m.EmailNormalized,
		PhoneNormalized:     m.PhoneNormalized,
		City:                m.City,
		State:               m.State,
		Source:              m.Source,
		Stage:               m.Stage,
		AssignedToID:        m.AssignedToID,
		ManagerID:           m.ManagerID,
		Interest: crm.Interest{
			TrailerType: m.TrailerType,
			StockNumber: m.StockNumber,
			Budget:      m.Budget,
			Payment:     m.Payment,
		},
		Notes:           m.Notes,
		Tags:            tags,
		Score:           m.Score,
		Temperature:     m.Temperature,
		InquiryCount:    m.InquiryCount,
		LastContactedAt: m.LastContactedAt,
		LastInquiryAt:   m.LastInquiryAt,
		CreatedByID:     m.CreatedByID,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer.
func CustomerModelFromDomain(c *crm.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		EmailNormalized: c.EmailNormalized,
		PhoneNormalized: c.PhoneNormalized,
		City:            c.City,
		State:           c.State,
		Source:          c.Source,
		Stage:           c.Stage,
		AssignedToID:    c.AssignedToID,
		ManagerID:       c.ManagerID,
		TrailerType:     c.Interest.TrailerType,
		StockNumber:     c.Interest.StockNumber,
		Budget:          c.Interest.Budget,
		Payment:         c.Interest.Payment,
		Notes:           c.Notes,
		Tags:            c.Tags,
		Score:           c.Score,
		Temperature:     c.Temperature,
		InquiryCount:    c.InquiryCount,
		LastContactedAt: c.LastContactedAt,
		LastInquiryAt:   c.LastInquiryAt,
		CreatedByID:     c.CreatedByID,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ActivityModel is one entry on a customer's timeline.
type ActivityModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type       crm.ActivityType `gorm:"type:varchar(30);not null"`
	Body       string           `gorm:"type:text;not null"`
	ActorID    *uuid.UUID       `gorm:"type:uuid"`
	CreatedAt  time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "customer_activities"
}

// ToDomain converts the persistence model to a domain Activity.
func (m *ActivityModel) ToDomain() *crm.Activity {
	return &crm.Activity{
		ID:         m.ID,
		TenantID:   m.TenantID,
		CustomerID: m.CustomerID,
		Type:       m.Type,
		Body:       m.Body,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

// ActivityModelFromDomain creates a persistence model from a domain Activity.
func ActivityModelFromDomain(a *crm.Activity) *ActivityModel {
	return &ActivityModel{
		ID:         a.ID,
		TenantID:   a.TenantID,
		CustomerID: a.CustomerID,
		Type:       a.Type,
		Body:       a.Body,
		ActorID:    a.ActorID,
		CreatedAt:  a.CreatedAt,
	}
}
