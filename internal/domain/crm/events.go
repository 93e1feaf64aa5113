package crm

import (
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
)

// AggregateTypeCustomer is the aggregate type for customer events
const AggregateTypeCustomer = "Customer"

// Customer domain event types
const (
	EventTypeCustomerCreated      = "CustomerCreated"
	EventTypeCustomerAssigned     = "CustomerAssigned"
	EventTypeCustomerStageChanged = "CustomerStageChanged"
	EventTypeDuplicateInquiry     = "DuplicateInquiry"
)

// CustomerCreatedEvent is published when a lead enters the CRM
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	Source Source `json:"source"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		Name:            c.Name,
		Source:          c.Source,
	}
}

// CustomerAssignedEvent is published when a lead changes hands
type CustomerAssignedEvent struct {
	shared.BaseDomainEvent
	CustomerName string     `json:"customer_name"`
	AssignedToID uuid.UUID  `json:"assigned_to_id"`
	PreviousID   *uuid.UUID `json:"previous_id,omitempty"`
	ManagerID    *uuid.UUID `json:"manager_id,omitempty"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
}

// NewCustomerAssignedEvent creates a new CustomerAssignedEvent
func NewCustomerAssignedEvent(c *Customer, previous, actorID *uuid.UUID) *CustomerAssignedEvent {
	return &CustomerAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerAssigned, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerName:    c.Name,
		AssignedToID:    *c.AssignedToID,
		PreviousID:      previous,
		ManagerID:       c.ManagerID,
		ActorID:         actorID,
	}
}

// CustomerStageChangedEvent is published when a lead moves on the board
type CustomerStageChangedEvent struct {
	shared.BaseDomainEvent
	From    Stage      `json:"from"`
	To      Stage      `json:"to"`
	ActorID *uuid.UUID `json:"actor_id,omitempty"`
}

// NewCustomerStageChangedEvent creates a new CustomerStageChangedEvent
func NewCustomerStageChangedEvent(c *Customer, from Stage, actorID *uuid.UUID) *CustomerStageChangedEvent {
	return &CustomerStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerStageChanged, AggregateTypeCustomer, c.ID, c.TenantID),
		From:            from,
		To:              c.Stage,
		ActorID:         actorID,
	}
}

// DuplicateInquiryEvent is published when a known lead inquires again
type DuplicateInquiryEvent struct {
	shared.BaseDomainEvent
	InquiryCount int        `json:"inquiry_count"`
	Source       Source     `json:"source"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"`
}

// NewDuplicateInquiryEvent creates a new DuplicateInquiryEvent
func NewDuplicateInquiryEvent(c *Customer, source Source) *DuplicateInquiryEvent {
	return &DuplicateInquiryEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDuplicateInquiry, AggregateTypeCustomer, c.ID, c.TenantID),
		InquiryCount:    c.InquiryCount,
		Source:          source,
		AssignedToID:    c.AssignedToID,
	}
}
