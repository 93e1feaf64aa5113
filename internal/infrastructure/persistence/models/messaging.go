package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/messaging"
)

// MessageModel is one row of the outbound message log.
type MessageModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerID  *uuid.UUID          `gorm:"type:uuid;index"`
	RecipientID *uuid.UUID          `gorm:"type:uuid"`
	Channel     messaging.Channel   `gorm:"type:varchar(10);not null"`
	Direction   messaging.Direction `gorm:"type:varchar(10);not null"`
	To          string              `gorm:"column:recipient;type:varchar(200);not null"`
	Subject     string              `gorm:"type:varchar(300)"`
	Body        string              `gorm:"type:text;not null"`
	Template    string              `gorm:"type:varchar(50)"`
	Status      messaging.Status    `gorm:"type:varchar(10);not null"`
	Error       string              `gorm:"type:text"`
	SenderID    *uuid.UUID          `gorm:"type:uuid"`
	ProviderRef string              `gorm:"type:varchar(200)"`
	CreatedAt   time.Time           `gorm:"not null;index"`
	SentAt      *time.Time
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts the persistence model to a domain Message.
func (m *MessageModel) ToDomain() *messaging.Message {
	return &messaging.Message{
		ID:          m.ID,
		TenantID:    m.TenantID,
		CustomerID:  m.CustomerID,
		RecipientID: m.RecipientID,
		Channel:     m.Channel,
		Direction:   m.Direction,
		To:          m.To,
		Subject:     m.Subject,
		Body:        m.Body,
		Template:    m.Template,
		Status:      m.Status,
		Error:       m.Error,
		SenderID:    m.SenderID,
		ProviderRef: m.ProviderRef,
		CreatedAt:   m.CreatedAt,
		SentAt:      m.SentAt,
	}
}

// MessageModelFromDomain creates a persistence model from a domain Message.
func MessageModelFromDomain(msg *messaging.Message) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		TenantID:    msg.TenantID,
		CustomerID:  msg.CustomerID,
		RecipientID: msg.RecipientID,
		Channel:     msg.Channel,
		Direction:   msg.Direction,
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Template:    msg.Template,
		Status:      msg.Status,
		Error:       msg.Error,
		SenderID:    msg.SenderID,
		ProviderRef: msg.ProviderRef,
		CreatedAt:   msg.CreatedAt,
		SentAt:      msg.SentAt,
	}
}
