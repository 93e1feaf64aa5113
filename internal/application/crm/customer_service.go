package crm

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const activityListLimit = 200

// DuplicateCustomerError is returned when a new customer collides with an
// existing one. ExistingID is only set when the caller can see that record.
type DuplicateCustomerError struct {
	*shared.DomainError
	ExistingID *uuid.UUID
}

// Unwrap exposes the domain error to errors.As.
func (e *DuplicateCustomerError) Unwrap() error {
	return e.DomainError
}

// CustomerService handles lead and customer operations for staff.
type CustomerService struct {
	customers  crm.CustomerRepository
	activities crm.ActivityRepository
	users      identity.UserRepository
	resolver   *access.Resolver
	assigner   *Assigner
	publisher  shared.EventPublisher
	logger     *zap.Logger
	exportMax  int
	metrics    *telemetry.SalesMetrics
	now        func() time.Time
}

// NewCustomerService creates a new CustomerService. exportMax caps CSV
// exports.
func NewCustomerService(
	customers crm.CustomerRepository,
	activities crm.ActivityRepository,
	users identity.UserRepository,
	assigner *Assigner,
	publisher shared.EventPublisher,
	exportMax int,
	logger *zap.Logger,
) *CustomerService {
	if exportMax <= 0 {
		exportMax = 10000
	}
	return &CustomerService{
		customers:  customers,
		activities: activities,
		users:      users,
		resolver:   access.NewResolver(users),
		assigner:   assigner,
		publisher:  publisher,
		logger:     logger,
		exportMax:  exportMax,
		now:        time.Now,
	}
}

// Create adds a lead by hand. Contact data is normalised, duplicates are
// rejected and the owner follows the creator's role.
func (s *CustomerService) Create(ctx context.Context, caller access.Caller, req CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create",
		telemetry.AttrTenantID, caller.TenantID.String(), telemetry.AttrUserID, caller.UserID.String())
	defer span.End()

	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}

	customer, err := crm.NewCustomer(caller.TenantID, req.Name, req.Email, req.Phone, crm.ParseSource(req.Source))
	if err != nil {
		return nil, err
	}

	key := crm.NewDuplicateKey(customer.Email, customer.Phone)
	existing, err := s.customers.FindDuplicate(ctx, caller.TenantID, key, uuid.Nil)
	switch {
	case err == nil:
		telemetry.SetAttributes(span, telemetry.AttrDuplicate, true)
		return nil, newDuplicateError(viewer, existing, "A customer with this email or phone already exists")
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	customer.SetLocation(req.City, req.State)
	if req.Interest != nil {
		interest, err := req.Interest.domain()
		if err != nil {
			return nil, err
		}
		if err := customer.SetInterest(interest); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		customer.SetNotes(req.Notes)
	}
	if len(req.Tags) > 0 {
		customer.SetTags(req.Tags)
	}

	assignment, err := s.assigner.ForCreator(ctx, viewer, req.AssignedToID)
	if err != nil {
		return nil, err
	}
	if err := customer.AssignTo(assignment.Rep.ID, assignment.ManagerID, caller.Actor()); err != nil {
		return nil, err
	}
	customer.CreatedByID = caller.Actor()
	customer.Rescore(s.now())

	if err := s.customers.Save(ctx, customer); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Another request stored the same contact after our lookup.
			telemetry.SetAttributes(span, telemetry.AttrDuplicate, true)
			return nil, s.raceDuplicate(ctx, viewer, caller.TenantID, key)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	s.logger.Info("Customer created",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("assigned_to", assignment.Rep.ID.String()),
		zap.String("created_by", caller.UserID.String()),
	)

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List returns a page of the customers the caller can see, narrowed by the
// filter. Search and filters never widen the role visibility.
func (s *CustomerService) List(ctx context.Context, caller access.Caller, f CustomerListFilter) (*CustomerListResult, error) {
	q, err := s.query(ctx, caller, f)
	if err != nil {
		return nil, err
	}
	customers, total, err := s.customers.List(ctx, caller.TenantID, q)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{
		Customers:  ToCustomerResponses(customers),
		Total:      total,
		Page:       q.Filter.Page,
		PageSize:   q.Filter.PageSize,
		TotalPages: q.Filter.TotalPages(total),
	}, nil
}

func (s *CustomerService) query(ctx context.Context, caller access.Caller, f CustomerListFilter) (crm.CustomerQuery, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return crm.CustomerQuery{}, err
	}

	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	filter.Search = strings.TrimSpace(f.Search)

	q := crm.CustomerQuery{
		Visibility:   crm.VisibilityFor(viewer),
		Filter:       filter,
		AssignedToID: f.AssignedToID,
		Temperature:  crm.Temperature(f.Temperature),
	}
	if f.Stage != "" {
		stage, err := crm.ParseStage(f.Stage)
		if err != nil {
			return crm.CustomerQuery{}, err
		}
		q.Stage = stage
	}
	if f.Source != "" {
		q.Source = crm.ParseSource(f.Source)
	}
	return q, nil
}

// Get returns a visible customer.
func (s *CustomerService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*CustomerResponse, error) {
	customer, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) load(ctx context.Context, caller access.Caller, id uuid.UUID) (*crm.Customer, crm.Viewer, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, crm.Viewer{}, err
	}
	customer, err := access.VisibleCustomer(ctx, s.customers, viewer, id)
	if err != nil {
		return nil, crm.Viewer{}, err
	}
	return customer, viewer, nil
}

// Update edits a visible customer. A changed email or phone must not collide
// with another customer.
func (s *CustomerService) Update(ctx context.Context, caller access.Caller, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, viewer, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != customer.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	if req.Name != nil || req.Email != nil || req.Phone != nil {
		name, email, phone := customer.Name, customer.Email, customer.Phone
		if req.Name != nil {
			name = *req.Name
		}
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := customer.UpdateContact(name, email, phone); err != nil {
			return nil, err
		}
		if err := s.ensureUnique(ctx, viewer, customer); err != nil {
			return nil, err
		}
	}
	if req.City != nil || req.State != nil {
		city, state := customer.City, customer.State
		if req.City != nil {
			city = *req.City
		}
		if req.State != nil {
			state = *req.State
		}
		customer.SetLocation(city, state)
	}
	if req.Interest != nil {
		interest, err := req.Interest.domain()
		if err != nil {
			return nil, err
		}
		if err := customer.SetInterest(interest); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}
	if req.Tags != nil {
		customer.SetTags(req.Tags)
	}
	customer.Rescore(s.now())

	if err := s.customers.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) ensureUnique(ctx context.Context, viewer crm.Viewer, c *crm.Customer) error {
	other, err := s.customers.FindDuplicate(ctx, c.TenantID, crm.NewDuplicateKey(c.Email, c.Phone), c.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return newDuplicateError(viewer, other, "Another customer already uses this email or phone")
}

// raceDuplicate builds the duplicate error after the unique index rejected
// a save. The winner is re-read so a visible ID can still be returned.
func (s *CustomerService) raceDuplicate(ctx context.Context, viewer crm.Viewer, tenantID uuid.UUID, key crm.DuplicateKey) error {
	const msg = "A customer with this email or phone already exists"
	existing, err := s.customers.FindDuplicate(ctx, tenantID, key, uuid.Nil)
	if err != nil {
		return &DuplicateCustomerError{DomainError: shared.NewDomainError("ALREADY_EXISTS", msg)}
	}
	return newDuplicateError(viewer, existing, msg)
}

// newDuplicateError reveals the existing customer's ID only to a viewer
// who could open it.
func newDuplicateError(viewer crm.Viewer, existing *crm.Customer, msg string) *DuplicateCustomerError {
	dup := &DuplicateCustomerError{DomainError: shared.NewDomainError("ALREADY_EXISTS", msg)}
	if crm.VisibilityFor(viewer).Allows(existing) {
		id := existing.ID
		dup.ExistingID = &id
	}
	return dup
}

// ChangeStage moves a visible customer on the pipeline board. An optional
// note is logged alongside the move.
func (s *CustomerService) ChangeStage(ctx context.Context, caller access.Caller, id uuid.UUID, req ChangeStageRequest) (*CustomerResponse, error) {
	customer, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	stage, err := crm.ParseStage(req.Stage)
	if err != nil {
		return nil, err
	}
	if err := customer.MoveTo(stage, caller.Actor()); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	if note := strings.TrimSpace(req.Note); note != "" {
		if err := s.appendActivity(ctx, customer, crm.ActivityNote, note, caller.Actor()); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Customer stage changed",
		zap.String("customer_id", customer.ID.String()),
		zap.String("stage", string(stage)),
		zap.String("changed_by", caller.UserID.String()),
	)
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Reassign hands a visible customer to another rep. Managers reassign
// within their team; admin roles reassign to anyone active.
func (s *CustomerService) Reassign(ctx context.Context, caller access.Caller, id uuid.UUID, req ReassignRequest) (*CustomerResponse, error) {
	if !caller.Role.CanManageTeam() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only managers and administrators can reassign customers")
	}
	customer, viewer, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	rep, err := s.users.FindByID(ctx, caller.TenantID, req.AssignedToID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Rep not found")
		}
		return nil, err
	}
	if !viewer.CanAssignTo(rep) {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot assign customers to this user")
	}

	managerID := rep.ManagerID
	if caller.Role == identity.RoleManager {
		managerID = caller.Actor()
	}
	if err := customer.AssignTo(rep.ID, managerID, caller.Actor()); err != nil {
		return nil, err
	}
	if err := s.customers.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	event.PublishPending(ctx, s.publisher, s.logger, customer)

	s.logger.Info("Customer reassigned",
		zap.String("customer_id", customer.ID.String()),
		zap.String("assigned_to", rep.ID.String()),
		zap.String("assigned_by", caller.UserID.String()),
	)
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Delete removes a customer and its timeline. Admin roles only.
func (s *CustomerService) Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	customer, viewer, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !viewer.CanDelete() {
		return shared.NewDomainError("FORBIDDEN", "Only administrators can delete customers")
	}
	if err := s.customers.Delete(ctx, caller.TenantID, customer.ID); err != nil {
		return err
	}
	s.logger.Info("Customer deleted",
		zap.String("customer_id", customer.ID.String()),
		zap.String("deleted_by", caller.UserID.String()),
	)
	return nil
}

// AddActivity logs a manual timeline entry. Calls, emails and texts count
// as contact and advance a new lead.
func (s *CustomerService) AddActivity(ctx context.Context, caller access.Caller, id uuid.UUID, req AddActivityRequest) (*ActivityResponse, error) {
	customer, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	typ, err := crm.ParseManualActivityType(req.Type)
	if err != nil {
		return nil, err
	}
	activity, err := crm.NewActivity(customer, typ, req.Body, caller.Actor())
	if err != nil {
		return nil, err
	}
	if err := s.activities.Append(ctx, activity); err != nil {
		return nil, err
	}

	if activity.IsContact() {
		customer.MarkContacted(activity.CreatedAt, caller.Actor())
		if err := s.customers.SaveWithLock(ctx, customer); err != nil {
			return nil, err
		}
		event.PublishPending(ctx, s.publisher, s.logger, customer)
	}

	resp := ToActivityResponse(activity)
	return &resp, nil
}

// ListActivities returns the most recent timeline entries, newest first.
func (s *CustomerService) ListActivities(ctx context.Context, caller access.Caller, id uuid.UUID) ([]ActivityResponse, error) {
	customer, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.ListByCustomer(ctx, caller.TenantID, customer.ID, activityListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityResponse, len(activities))
	for i := range activities {
		out[i] = ToActivityResponse(&activities[i])
	}
	return out, nil
}

// Pipeline groups the visible customers by stage in board order.
func (s *CustomerService) Pipeline(ctx context.Context, caller access.Caller, search string) (*PipelineBoard, error) {
	q, err := s.query(ctx, caller, CustomerListFilter{Search: search, OrderBy: "score", OrderDir: "desc"})
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.ListAll(ctx, caller.TenantID, q)
	if err != nil {
		return nil, err
	}

	byStage := make(map[crm.Stage][]CustomerResponse, len(crm.PipelineStages))
	for i := range customers {
		c := &customers[i]
		byStage[c.Stage] = append(byStage[c.Stage], ToCustomerResponse(c))
	}
	board := &PipelineBoard{Columns: make([]PipelineColumn, 0, len(crm.PipelineStages))}
	for _, stage := range crm.PipelineStages {
		cards := byStage[stage]
		if cards == nil {
			cards = []CustomerResponse{}
		}
		board.Columns = append(board.Columns, PipelineColumn{Stage: string(stage), Count: len(cards), Customers: cards})
		board.Total += len(cards)
	}
	return board, nil
}

// exportHeader is the CSV column order.
var exportHeader = []string{
	"id", "name", "email", "phone", "city", "state", "source", "stage", "score", "temperature",
	"assigned_to_id", "trailer_type", "stock_number", "budget", "payment", "inquiry_count",
	"last_contacted_at", "created_at",
}

// Export writes the visible customers matching f as CSV, ignoring paging.
// It returns the number of rows written.
func (s *CustomerService) Export(ctx context.Context, caller access.Caller, f CustomerListFilter, w io.Writer) (int, error) {
	q, err := s.query(ctx, caller, f)
	if err != nil {
		return 0, err
	}
	q.Filter.Page = 1
	q.Filter.PageSize = s.exportMax
	customers, total, err := s.customers.List(ctx, caller.TenantID, q)
	if err != nil {
		return 0, err
	}
	if total > int64(len(customers)) {
		s.logger.Warn("Customer export truncated",
			zap.Int64("total", total), zap.Int("limit", s.exportMax))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}
	for i := range customers {
		if err := cw.Write(exportRow(&customers[i])); err != nil {
			return i, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	s.logger.Info("Customers exported",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("user_id", caller.UserID.String()),
		zap.Int("rows", len(customers)),
	)
	return len(customers), nil
}

func exportRow(c *crm.Customer) []string {
	assigned := ""
	if c.AssignedToID != nil {
		assigned = c.AssignedToID.String()
	}
	contacted := ""
	if c.LastContactedAt != nil {
		contacted = c.LastContactedAt.UTC().Format(time.RFC3339)
	}
	// Every cell a user or lead feed can write goes through csvSafe.
	return []string{
		c.ID.String(),
		csvSafe(c.Name),
		csvSafe(c.Email),
		csvSafe(c.Phone),
		csvSafe(c.City),
		csvSafe(c.State),
		string(c.Source),
		string(c.Stage),
		strconv.Itoa(c.Score),
		string(c.Temperature),
		assigned,
		csvSafe(c.Interest.TrailerType),
		csvSafe(c.Interest.StockNumber),
		c.Interest.Budget.StringFixed(2),
		string(c.Interest.Payment),
		strconv.Itoa(c.InquiryCount),
		contacted,
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// csvSafe neutralises cells a spreadsheet would evaluate as formulas.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func (s *CustomerService) appendActivity(ctx context.Context, c *crm.Customer, typ crm.ActivityType, body string, actor *uuid.UUID) error {
	activity, err := crm.NewActivity(c, typ, body, actor)
	if err != nil {
		return err
	}
	return s.activities.Append(ctx, activity)
}

// SetSalesMetrics sets the collector counting rescored customers.
func (s *CustomerService) SetSalesMetrics(m *telemetry.SalesMetrics) {
	s.metrics = m
}

// RescoreAll recomputes every customer's score in the tenant so that aged
// contact bonuses fall away without a user touching the record. It returns
// how many customers changed.
func (s *CustomerService) RescoreAll(ctx context.Context, tenantID uuid.UUID) (int, error) {
	customers, err := s.customers.ListAll(ctx, tenantID, crm.CustomerQuery{Visibility: crm.Visibility{All: true}})
	if err != nil {
		return 0, err
	}
	now := s.now()
	changed := 0
	for i := range customers {
		c := &customers[i]
		score, temp := c.Score, c.Temperature
		c.Rescore(now)
		if c.Score == score && c.Temperature == temp {
			continue
		}
		if err := s.customers.SaveWithLock(ctx, c); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				// A concurrent edit rescored it already.
				continue
			}
			return changed, err
		}
		changed++
	}
	if s.metrics != nil {
		s.metrics.RecordCustomersRescored(ctx, tenantID, changed)
	}
	if changed > 0 {
		s.logger.Info("Customers rescored",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("changed", changed))
	}
	return changed, nil
}
