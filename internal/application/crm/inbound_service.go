package crm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InboundService takes leads posted by website forms and lead feeds.
type InboundService struct {
	tenants    identity.TenantRepository
	customers  crm.CustomerRepository
	activities crm.ActivityRepository
	users      identity.UserRepository
	assigner   *Assigner
	publisher  shared.EventPublisher
	logger     *zap.Logger
	metrics    *telemetry.SalesMetrics
	now        func() time.Time
}

// NewInboundService creates a new InboundService
func NewInboundService(
	tenants identity.TenantRepository,
	customers crm.CustomerRepository,
	activities crm.ActivityRepository,
	users identity.UserRepository,
	assigner *Assigner,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *InboundService {
	return &InboundService{
		tenants:    tenants,
		customers:  customers,
		activities: activities,
		users:      users,
		assigner:   assigner,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// SetSalesMetrics sets the collector counting inbound leads.
func (s *InboundService) SetSalesMetrics(m *telemetry.SalesMetrics) {
	s.metrics = m
}

// Authenticate resolves the dealership owning an inbound API key.
func (s *InboundService) Authenticate(ctx context.Context, apiKey string) (*identity.Tenant, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, shared.ErrUnauthorized
	}
	tenant, err := s.tenants.FindByInboundKeyHash(ctx, identity.HashInboundKey(apiKey))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	if !tenant.Active {
		return nil, shared.ErrUnauthorized
	}
	return tenant, nil
}

// Receive files an inbound lead. A lead matching an existing customer by
// email or phone is recorded as a repeat inquiry on that customer instead.
func (s *InboundService) Receive(ctx context.Context, tenantID uuid.UUID, req InboundLeadRequest) (*InboundResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inbound", "receive", telemetry.AttrTenantID, tenantID.String())
	defer span.End()

	source := crm.ParseSource(req.Source)
	key := crm.NewDuplicateKey(req.Email, req.Phone)
	if !key.IsEmpty() {
		existing, err := s.customers.FindDuplicate(ctx, tenantID, key, uuid.Nil)
		switch {
		case err == nil:
			telemetry.SetAttributes(span, telemetry.AttrDuplicate, true, telemetry.AttrCustomerID, existing.ID.String())
			return s.repeatInquiry(ctx, existing, source, req)
		case !errors.Is(err, shared.ErrNotFound):
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	customer, err := crm.NewCustomer(tenantID, req.Name, req.Email, req.Phone, source)
	if err != nil {
		return nil, err
	}
	customer.SetLocation(req.City, req.State)
	if err := applyInboundInterest(customer, req); err != nil {
		return nil, err
	}

	assignment, err := s.assigner.ForInbound(ctx, tenantID, req.RepEmail)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := customer.AssignTo(assignment.Rep.ID, assignment.ManagerID, nil); err != nil {
		return nil, err
	}
	customer.Rescore(s.now())

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) && !key.IsEmpty() {
			// A concurrent post of the same lead won the insert.
			existing, findErr := s.customers.FindDuplicate(ctx, tenantID, key, uuid.Nil)
			if findErr == nil {
				telemetry.SetAttributes(span, telemetry.AttrDuplicate, true, telemetry.AttrCustomerID, existing.ID.String())
				return s.repeatInquiry(ctx, existing, source, req)
			}
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		s.logActivity(ctx, customer, crm.ActivityNote, msg)
	}
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	s.logger.Info("Inbound lead created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("source", string(source)),
		zap.String("assigned_to", assignment.Rep.ID.String()),
	)
	telemetry.SetAttributes(span, telemetry.AttrCustomerID, customer.ID.String(), telemetry.AttrDuplicate, false)
	if s.metrics != nil {
		s.metrics.RecordLead(ctx, tenantID, telemetry.LeadCreated)
	}

	return &InboundResult{CustomerID: customer.ID, AssignedToID: customer.AssignedToID}, nil
}

func (s *InboundService) repeatInquiry(ctx context.Context, customer *crm.Customer, source crm.Source, req InboundLeadRequest) (*InboundResult, error) {
	reopened := customer.RecordInquiry(s.now(), source)

	if customer.Interest.IsZero() {
		if err := applyInboundInterest(customer, req); err != nil {
			s.logger.Debug("Ignoring invalid interest on repeat inquiry", zap.Error(err))
		}
	}

	orphaned, err := s.isOrphaned(ctx, customer)
	if err != nil {
		return nil, err
	}
	if orphaned {
		assignment, err := s.assigner.ForInbound(ctx, customer.TenantID, req.RepEmail)
		if err != nil {
			return nil, err
		}
		if err := customer.AssignTo(assignment.Rep.ID, assignment.ManagerID, nil); err != nil {
			return nil, err
		}
	}

	if err := s.customers.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}

	body := "Repeat inquiry #" + strconv.Itoa(customer.InquiryCount) + " via " + string(source)
	if msg := strings.TrimSpace(req.Message); msg != "" {
		body += ": " + msg
	}
	s.logActivity(ctx, customer, crm.ActivityDuplicateInquiry, body)
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	s.logger.Info("Repeat inquiry recorded",
		zap.String("tenant_id", customer.TenantID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.Int("inquiry_count", customer.InquiryCount),
		zap.Bool("reopened", reopened),
		zap.Bool("reassigned", orphaned),
	)
	if s.metrics != nil {
		outcome := telemetry.LeadDuplicate
		if reopened {
			outcome = telemetry.LeadReopened
		}
		s.metrics.RecordLead(ctx, customer.TenantID, outcome)
	}
	return &InboundResult{
		CustomerID:   customer.ID,
		Duplicate:    true,
		Reopened:     reopened,
		AssignedToID: customer.AssignedToID,
	}, nil
}

// isOrphaned is true when nobody active owns the customer.
func (s *InboundService) isOrphaned(ctx context.Context, c *crm.Customer) (bool, error) {
	if c.AssignedToID == nil {
		return true, nil
	}
	rep, err := s.users.FindByID(ctx, c.TenantID, *c.AssignedToID)
	if errors.Is(err, shared.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !rep.Active, nil
}

// logActivity appends a system timeline entry. The lead is already saved,
// so a failure is logged rather than returned.
func (s *InboundService) logActivity(ctx context.Context, c *crm.Customer, typ crm.ActivityType, body string) {
	activity, err := crm.NewActivity(c, typ, body, nil)
	if err == nil {
		err = s.activities.Append(ctx, activity)
	}
	if err != nil {
		s.logger.Warn("Failed to record inbound activity",
			zap.String("customer_id", c.ID.String()), zap.Error(err))
	}
}

func applyInboundInterest(c *crm.Customer, req InboundLeadRequest) error {
	ir := InterestRequest{
		TrailerType: req.TrailerType,
		StockNumber: req.StockNumber,
		Budget:      req.Budget,
	}
	// Feeds send free-form payment labels; unknown ones are dropped.
	if pay, err := crm.ParsePaymentPreference(req.Payment); err == nil {
		ir.Payment = string(pay)
	}
	interest, err := ir.domain()
	if err != nil {
		return err
	}
	if interest.IsZero() {
		return nil
	}
	return c.SetInterest(interest)
}
