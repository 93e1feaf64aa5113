package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TenantModel is the persistence model for a dealership.
type TenantModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Version           int             `gorm:"not null;default:1"`
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Active            bool            `gorm:"not null;default:true"`
	InboundKeyHash    string          `gorm:"type:varchar(64);index"`
	MinimumProfit     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MarkupPercent     decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	MinimumCommission decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DocFee            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRatePercent    decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version:        m.Version,
		Code:           m.Code,
		Name:           m.Name,
		Active:         m.Active,
		InboundKeyHash: m.InboundKeyHash,
		Settings: identity.DealershipSettings{
			MinimumProfit:     m.MinimumProfit,
			MarkupPercent:     m.MarkupPercent,
			CommissionPercent: m.CommissionPercent,
			MinimumCommission: m.MinimumCommission,
			DocFee:            m.DocFee,
			TaxRatePercent:    m.TaxRatePercent,
		},
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	return &TenantModel{
		ID:                t.ID,
		Version:           t.Version,
		Code:              t.Code,
		Name:              t.Name,
		Active:            t.Active,
		InboundKeyHash:    t.InboundKeyHash,
		MinimumProfit:     t.Settings.MinimumProfit,
		MarkupPercent:     t.Settings.MarkupPercent,
		CommissionPercent: t.Settings.CommissionPercent,
		MinimumCommission: t.Settings.MinimumCommission,
		DocFee:            t.Settings.DocFee,
		TaxRatePercent:    t.Settings.TaxRatePercent,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// UserModel is the persistence model for dealership staff.
type UserModel struct {
	TenantAggregateModel
	Email        string        `gorm:"type:varchar(200);not null"`
	DisplayName  string        `gorm:"type:varchar(200);not null"`
	Phone        string        `gorm:"type:varchar(50)"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null;index"`
	ManagerID    *uuid.UUID    `gorm:"type:uuid;index"`
	Active       bool          `gorm:"not null;default:true"`
	AcceptsLeads bool          `gorm:"not null;default:false"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		Phone:               m.Phone,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		ManagerID:           m.ManagerID,
		Active:              m.Active,
		AcceptsLeads:        m.AcceptsLeads,
		LastLoginAt:         m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		ManagerID:    u.ManagerID,
		Active:       u.Active,
		AcceptsLeads: u.AcceptsLeads,
		LastLoginAt:  u.LastLoginAt,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
