// Package messaging sends customer messages and staff notifications.
package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// Sender delivers a message and returns the provider's reference.
type Sender interface {
	Send(ctx context.Context, m *messaging.Message) (string, error)
}

// MessageService sends messages to visible customers and keeps the log.
type MessageService struct {
	messages   messaging.MessageRepository
	customers  crm.CustomerRepository
	activities crm.ActivityRepository
	users      identity.UserRepository
	tenants    identity.TenantRepository
	renderer   *messaging.Renderer
	sender     Sender
	resolver   *access.Resolver
	publisher  shared.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messages messaging.MessageRepository,
	customers crm.CustomerRepository,
	activities crm.ActivityRepository,
	users identity.UserRepository,
	tenants identity.TenantRepository,
	renderer *messaging.Renderer,
	sender Sender,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:   messages,
		customers:  customers,
		activities: activities,
		users:      users,
		tenants:    tenants,
		renderer:   renderer,
		sender:     sender,
		resolver:   access.NewResolver(users),
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Send renders and delivers a message to a customer. A failed send is
// logged as failed and returned as SEND_FAILED; a sent one marks the
// customer contacted.
func (s *MessageService) Send(ctx context.Context, caller access.Caller, customerID uuid.UUID, req SendMessageRequest) (*MessageResponse, error) {
	channel, err := messaging.ParseChannel(req.Channel)
	if err != nil {
		return nil, err
	}
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	customer, err := access.VisibleCustomer(ctx, s.customers, viewer, customerID)
	if err != nil {
		return nil, err
	}
	rep, err := s.users.FindByID(ctx, caller.TenantID, caller.UserID)
	if err != nil {
		return nil, err
	}

	subject, body := req.Subject, req.Body
	if req.Template != "" {
		data, err := s.templateData(ctx, caller.TenantID, customer, rep)
		if err != nil {
			return nil, err
		}
		data.Extra = req.Extra
		tSubject, tBody, err := s.renderer.Render(req.Template, data)
		if err != nil {
			return nil, err
		}
		if subject == "" {
			subject = tSubject
		}
		if body == "" {
			body = tBody
		}
	}

	to := customer.Phone
	if channel == messaging.ChannelEmail {
		to = customer.Email
	}
	msg, err := messaging.NewOutbound(caller.TenantID, channel, to, subject, body)
	if err != nil {
		return nil, err
	}
	msg.CustomerID = &customer.ID
	msg.SenderID = caller.Actor()
	msg.Template = req.Template

	sendErr := s.deliver(ctx, msg)
	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}
	if sendErr != nil {
		return nil, shared.NewDomainError("SEND_FAILED", "Message could not be delivered: "+sendErr.Error())
	}

	s.recordContact(ctx, caller, customer, msg)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, messaging.NewMessageSentEvent(msg)); err != nil {
			s.logger.Warn("Failed to publish message event", zap.String("message_id", msg.ID.String()), zap.Error(err))
		}
	}
	resp := ToMessageResponse(msg)
	return &resp, nil
}

// deliver hands msg to the sender and records the outcome on it.
func (s *MessageService) deliver(ctx context.Context, msg *messaging.Message) error {
	ref, err := s.sender.Send(ctx, msg)
	if err != nil {
		msg.MarkFailed(err)
		s.logger.Warn("Message send failed",
			zap.String("tenant_id", msg.TenantID.String()),
			zap.String("message_id", msg.ID.String()),
			zap.String("channel", string(msg.Channel)),
			zap.Error(err),
		)
		return err
	}
	msg.MarkSent(ref, s.now())
	return nil
}

// recordContact stamps the customer and writes the timeline entry. The
// message is already out, so failures are only logged.
func (s *MessageService) recordContact(ctx context.Context, caller access.Caller, c *crm.Customer, msg *messaging.Message) {
	c.MarkContacted(s.now(), caller.Actor())
	if err := s.customers.SaveWithLock(ctx, c); err != nil {
		s.logger.Warn("Failed to mark customer contacted",
			zap.String("customer_id", c.ID.String()),
			zap.Error(err),
		)
		c.ClearDomainEvents()
	} else {
		event.PublishPending(ctx, s.publisher, s.logger, c)
	}

	typ, label := crm.ActivitySMS, "SMS"
	if msg.Channel == messaging.ChannelEmail {
		typ, label = crm.ActivityEmail, "Email: "+msg.Subject
	}
	a, err := crm.NewActivity(c, typ, label+"\n"+msg.Body, caller.Actor())
	if err == nil {
		err = s.activities.Append(ctx, a)
	}
	if err != nil {
		s.logger.Warn("Failed to record message activity", zap.String("customer_id", c.ID.String()), zap.Error(err))
	}
}

func (s *MessageService) templateData(ctx context.Context, tenantID uuid.UUID, c *crm.Customer, rep *identity.User) (messaging.TemplateData, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return messaging.TemplateData{}, err
	}
	data := messaging.TemplateData{
		Dealership: tenant.Name,
		Customer: messaging.TemplateCustomer{
			Name:        c.Name,
			Email:       c.Email,
			Phone:       c.Phone,
			Source:      string(c.Source),
			TrailerType: c.Interest.TrailerType,
			StockNumber: c.Interest.StockNumber,
		},
	}
	if rep != nil {
		data.Rep = messaging.TemplateRep{Name: rep.DisplayName, Email: rep.Email, Phone: rep.Phone}
	}
	return data, nil
}

// ListByCustomer returns a visible customer's conversation, newest first.
func (s *MessageService) ListByCustomer(ctx context.Context, caller access.Caller, customerID uuid.UUID) ([]MessageResponse, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	if _, err := access.VisibleCustomer(ctx, s.customers, viewer, customerID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByCustomer(ctx, caller.TenantID, customerID, 200)
	if err != nil {
		return nil, err
	}
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ToMessageResponse(&msgs[i]))
	}
	return out, nil
}

// NotifyRep tells a rep about a lead: by SMS when they have a phone,
// otherwise by email.
func (s *MessageService) NotifyRep(ctx context.Context, tenantID, repID, customerID uuid.UUID) error {
	rep, err := s.users.FindByID(ctx, tenantID, repID)
	if err != nil {
		return err
	}
	customer, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	data, err := s.templateData(ctx, tenantID, customer, rep)
	if err != nil {
		return err
	}
	subject, body, err := s.renderer.Render(messaging.TemplateLeadAssigned, data)
	if err != nil {
		return err
	}
	channel, to := messaging.ChannelSMS, rep.Phone
	if to == "" {
		channel, to = messaging.ChannelEmail, rep.Email
	}
	msg, err := messaging.NewOutbound(tenantID, channel, to, subject, body)
	if err != nil {
		return err
	}
	msg.RecipientID = &rep.ID
	msg.Template = messaging.TemplateLeadAssigned

	sendErr := s.deliver(ctx, msg)
	if err := s.messages.Save(ctx, msg); err != nil {
		return err
	}
	return sendErr
}
