package onboarding

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/domain/onboarding"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// MilestoneHandler starts checklists for new users and ticks the steps
// that are proven by activity: first lead, first message, first quote.
type MilestoneHandler struct {
	checklists *ChecklistService
	logger     *zap.Logger
}

// NewMilestoneHandler creates a new MilestoneHandler
func NewMilestoneHandler(checklists *ChecklistService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{checklists: checklists, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MilestoneHandler) EventTypes() []string {
	return []string{
		identity.EventTypeUserCreated,
		crm.EventTypeCustomerAssigned,
		messaging.EventTypeMessageSent,
		quote.EventTypeQuoteSent,
	}
}

// Handle processes the event
func (h *MilestoneHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *identity.UserCreatedEvent:
		return h.checklists.Start(ctx, e.TenantID(), e.AggregateID())
	case *crm.CustomerAssignedEvent:
		return h.tick(ctx, e.TenantID(), &e.AssignedToID, onboarding.StepFirstLead)
	case *messaging.MessageSentEvent:
		return h.tick(ctx, e.TenantID(), e.SenderID, onboarding.StepFirstMessage)
	case *quote.QuoteSentEvent:
		return h.tick(ctx, e.TenantID(), &e.PreparedByID, onboarding.StepFirstQuote)
	default:
		h.logger.Warn("Unexpected event type for onboarding handler",
			zap.String("event_type", ev.EventType()))
		return nil
	}
}

func (h *MilestoneHandler) tick(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, step onboarding.Step) error {
	if userID == nil || *userID == uuid.Nil {
		return nil
	}
	_, _, err := h.checklists.complete(ctx, tenantID, *userID, step)
	if err != nil {
		h.logger.Warn("Failed to tick onboarding step",
			zap.String("user_id", userID.String()),
			zap.String("step", string(step)),
			zap.Error(err),
		)
	}
	return err
}
