package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/application/event"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	errDeliveryManagersOnly = shared.NewDomainError("FORBIDDEN", "Only managers and administrators can settle deliveries")
	errRateOverride         = shared.NewDomainError("FORBIDDEN", "Only managers and administrators can override commission rates")
	errUnitBooked           = shared.NewDomainError("UNIT_ALREADY_SCHEDULED", "Unit already has a scheduled delivery")
)

// DeliveryService books deliveries and settles commission.
type DeliveryService struct {
	deliveries sales.DeliveryRepository
	units      inventory.UnitRepository
	customers  crm.CustomerRepository
	users      identity.UserRepository
	tenants    identity.TenantRepository
	tx         sales.DealTransaction
	resolver   *access.Resolver
	publisher  shared.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(
	deliveries sales.DeliveryRepository,
	units inventory.UnitRepository,
	customers crm.CustomerRepository,
	users identity.UserRepository,
	tenants identity.TenantRepository,
	tx sales.DealTransaction,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *DeliveryService {
	return &DeliveryService{
		deliveries: deliveries,
		units:      units,
		customers:  customers,
		users:      users,
		tenants:    tenants,
		tx:         tx,
		resolver:   access.NewResolver(users),
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Schedule books a delivery for a customer the caller can see. The unit is
// held for the customer and the customer moves to won.
func (s *DeliveryService) Schedule(ctx context.Context, caller access.Caller, req ScheduleDeliveryRequest) (*DeliveryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "schedule",
		"tenant_id", caller.TenantID.String(),
		"customer_id", req.CustomerID.String(),
		"unit_id", req.UnitID.String(),
	)
	defer span.End()

	if (req.CommissionPercent != nil || req.MinimumCommission != nil) && !caller.Role.CanManageTeam() {
		return nil, errRateOverride
	}
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	customer, err := access.VisibleCustomer(ctx, s.customers, viewer, req.CustomerID)
	if err != nil {
		return nil, err
	}
	repID, err := s.dealRep(ctx, caller, viewer, customer, req.RepID)
	if err != nil {
		return nil, err
	}
	if req.SplitRepID != nil {
		if _, err := s.activeRep(ctx, caller.TenantID, *req.SplitRepID); err != nil {
			return nil, err
		}
	}
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	rule := sales.CommissionRule{
		RatePercent: tenant.Settings.CommissionPercent,
		Minimum:     tenant.Settings.MinimumCommission,
	}
	if req.CommissionPercent != nil {
		rule.RatePercent = *req.CommissionPercent
	}
	if req.MinimumCommission != nil {
		rule.Minimum = *req.MinimumCommission
	}

	var delivery *sales.Delivery
	err = s.tx.Execute(ctx, func(repos sales.DealRepositories) error {
		if _, err := repos.Deliveries().FindOpenByUnit(ctx, caller.TenantID, req.UnitID); err == nil {
			return errUnitBooked
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		unit, err := repos.Units().FindByID(ctx, caller.TenantID, req.UnitID)
		if err != nil {
			return err
		}
		salePrice := unit.ListPrice
		if req.SalePrice != nil {
			salePrice = *req.SalePrice
		}
		delivery, err = sales.NewDelivery(caller.TenantID, customer.ID, unit.ID, repID, req.SplitRepID, sales.DealTerms{
			SalePrice: salePrice,
			UnitCost:  unit.LandedCost(),
			Fees:      req.Fees,
			Rule:      rule,
		}, req.ScheduledFor)
		if err != nil {
			return err
		}
		delivery.Notes = req.Notes

		if err := holdFor(unit, customer.ID); err != nil {
			return err
		}
		if err := repos.Units().Save(ctx, unit); err != nil {
			return err
		}
		if customer.Stage != crm.StageWon {
			if err := markWon(customer, caller.Actor()); err != nil {
				return err
			}
			if err := repos.Customers().SaveWithLock(ctx, customer); err != nil {
				return err
			}
		}
		if err := repos.Deliveries().Save(ctx, delivery); err != nil {
			return err
		}
		return appendDealActivity(ctx, repos, customer,
			fmt.Sprintf("Delivery of %s scheduled for %s", unit.Title(), delivery.ScheduledFor.Format("Jan 2, 2006")),
			caller.Actor())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	event.PublishPending(ctx, s.publisher, s.logger, customer)
	event.PublishPending(ctx, s.publisher, s.logger, delivery)
	s.logger.Info("Delivery scheduled",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("delivery_id", delivery.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("rep_id", repID.String()),
		zap.Time("scheduled_for", delivery.ScheduledFor),
	)
	resp := ToDeliveryResponse(delivery)
	return &resp, nil
}

// dealRep picks who earns on the deal: the customer's rep unless a manager
// or admin names another active rep. Salespeople always book for themselves.
func (s *DeliveryService) dealRep(ctx context.Context, caller access.Caller, viewer crm.Viewer, c *crm.Customer, requested *uuid.UUID) (uuid.UUID, error) {
	if caller.Role == identity.RoleSalesperson {
		return caller.UserID, nil
	}
	if requested == nil {
		if c.AssignedToID != nil {
			return *c.AssignedToID, nil
		}
		return caller.UserID, nil
	}
	rep, err := s.activeRep(ctx, caller.TenantID, *requested)
	if err != nil {
		return uuid.Nil, err
	}
	if !viewer.CanAssignTo(rep) {
		return uuid.Nil, shared.NewDomainError("INVALID_ASSIGNEE", "Rep is not on your team")
	}
	return rep.ID, nil
}

func (s *DeliveryService) activeRep(ctx context.Context, tenantID, repID uuid.UUID) (*identity.User, error) {
	rep, err := s.users.FindByID(ctx, tenantID, repID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Rep does not exist")
		}
		return nil, err
	}
	if !rep.Active {
		return nil, shared.NewDomainError("INVALID_ASSIGNEE", "Rep is not active")
	}
	return rep, nil
}

// holdFor reserves the unit for the customer, leaving an existing hold for
// the same customer in place.
func holdFor(unit *inventory.Unit, customerID uuid.UUID) error {
	switch unit.Status {
	case inventory.UnitStatusSold:
		return shared.NewDomainError("UNIT_SOLD", "Unit is already sold")
	case inventory.UnitStatusOnHold:
		if unit.HoldCustomer != nil && *unit.HoldCustomer == customerID {
			return nil
		}
		return shared.NewDomainError("UNIT_ON_HOLD", "Unit is on hold for another customer")
	}
	return unit.Hold(customerID)
}

func appendDealActivity(ctx context.Context, repos sales.DealRepositories, c *crm.Customer, body string, actor *uuid.UUID) error {
	a, err := crm.NewActivity(c, crm.ActivityDelivery, body, actor)
	if err != nil {
		return err
	}
	return repos.Activities().Append(ctx, a)
}

// Get returns a delivery the caller may see.
func (s *DeliveryService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*DeliveryResponse, error) {
	d, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(d)
	return &resp, nil
}

// load hides deliveries outside the caller's rep scope as not found.
func (s *DeliveryService) load(ctx context.Context, caller access.Caller, id uuid.UUID) (*sales.Delivery, error) {
	scope, err := s.resolver.RepScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	d, err := s.deliveries.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !access.InScope(scope, d.RepID) && (d.SplitRepID == nil || !access.InScope(scope, *d.SplitRepID)) {
		return nil, shared.ErrNotFound
	}
	return d, nil
}

// List returns a page of deliveries in the caller's scope.
func (s *DeliveryService) List(ctx context.Context, caller access.Caller, f DeliveryListFilter) (*DeliveryListResult, error) {
	scope, err := s.resolver.RepScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	q := sales.DeliveryQuery{
		Filter:     filter,
		RepIDs:     scope,
		Status:     sales.DeliveryStatus(f.Status),
		CustomerID: f.CustomerID,
		From:       f.From,
		To:         f.To,
	}
	if f.To != nil {
		end := f.To.AddDate(0, 0, 1)
		q.To = &end
	}
	deliveries, total, err := s.deliveries.List(ctx, caller.TenantID, q)
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		out = append(out, ToDeliveryResponse(&deliveries[i]))
	}
	return &DeliveryListResult{
		Deliveries: out,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: filter.TotalPages(total),
	}, nil
}

// Reschedule moves a scheduled delivery.
func (s *DeliveryService) Reschedule(ctx context.Context, caller access.Caller, id uuid.UUID, req RescheduleDeliveryRequest) (*DeliveryResponse, error) {
	d, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := d.Reschedule(req.ScheduledFor); err != nil {
		return nil, err
	}
	if err := s.deliveries.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDeliveryResponse(d)
	return &resp, nil
}

// Complete hands the unit over: the delivery settles commission, the unit
// is sold and the customer moves to delivered, all in one transaction.
func (s *DeliveryService) Complete(ctx context.Context, caller access.Caller, id uuid.UUID) (*DeliveryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "complete",
		"tenant_id", caller.TenantID.String(),
		"delivery_id", id.String(),
	)
	defer span.End()

	if !caller.Role.CanManageTeam() {
		return nil, errDeliveryManagersOnly
	}
	d, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var customer *crm.Customer
	err = s.tx.Execute(ctx, func(repos sales.DealRepositories) error {
		if err := d.Complete(now); err != nil {
			return err
		}
		unit, err := repos.Units().FindByID(ctx, caller.TenantID, d.UnitID)
		if err != nil {
			return err
		}
		if err := unit.MarkSold(d.CustomerID, now); err != nil {
			return err
		}
		if err := repos.Units().Save(ctx, unit); err != nil {
			return err
		}
		customer, err = repos.Customers().FindByID(ctx, caller.TenantID, d.CustomerID)
		if err != nil {
			return err
		}
		if customer.Stage != crm.StageWon && customer.Stage != crm.StageDelivered {
			if err := markWon(customer, caller.Actor()); err != nil {
				return err
			}
		}
		if err := customer.MoveTo(crm.StageDelivered, caller.Actor()); err != nil {
			return err
		}
		if err := repos.Customers().SaveWithLock(ctx, customer); err != nil {
			return err
		}
		if err := repos.Deliveries().Save(ctx, d); err != nil {
			return err
		}
		return appendDealActivity(ctx, repos, customer,
			fmt.Sprintf("%s delivered for %s", unit.Title(), d.SalePrice.StringFixed(2)),
			caller.Actor())
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	event.PublishPending(ctx, s.publisher, s.logger, customer)
	event.PublishPending(ctx, s.publisher, s.logger, d)
	telemetry.SetAttributes(span, "commission", d.TotalCommission().String())
	s.logger.Info("Delivery completed",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("delivery_id", d.ID.String()),
		zap.String("gross_profit", d.GrossProfit.String()),
		zap.String("commission", d.TotalCommission().String()),
	)
	resp := ToDeliveryResponse(d)
	return &resp, nil
}

// Cancel drops a scheduled delivery and releases the unit's hold.
func (s *DeliveryService) Cancel(ctx context.Context, caller access.Caller, id uuid.UUID, req CancelDeliveryRequest) (*DeliveryResponse, error) {
	if !caller.Role.CanManageTeam() {
		return nil, errDeliveryManagersOnly
	}
	d, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	err = s.tx.Execute(ctx, func(repos sales.DealRepositories) error {
		if err := d.Cancel(req.Reason); err != nil {
			return err
		}
		unit, err := repos.Units().FindByID(ctx, caller.TenantID, d.UnitID)
		if err != nil {
			return err
		}
		if unit.Status == inventory.UnitStatusOnHold && unit.HoldCustomer != nil && *unit.HoldCustomer == d.CustomerID {
			if err := unit.Release(); err != nil {
				return err
			}
			if err := repos.Units().Save(ctx, unit); err != nil {
				return err
			}
		}
		return repos.Deliveries().Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Delivery cancelled",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("delivery_id", d.ID.String()),
		zap.String("reason", req.Reason),
	)
	resp := ToDeliveryResponse(d)
	return &resp, nil
}

// CommissionReport sums settled commission per rep in the caller's scope
// for deliveries completed in [From, To]. Zero dates mean this month.
func (s *DeliveryService) CommissionReport(ctx context.Context, caller access.Caller, f CommissionReportFilter) (*CommissionReport, error) {
	scope, err := s.resolver.RepScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	from, to := f.From, f.To
	if from.IsZero() && to.IsZero() {
		from = MonthStart(s.now())
		to = from.AddDate(0, 1, 0)
	} else {
		if to.IsZero() {
			to = s.now()
		}
		to = to.Truncate(24*time.Hour).AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Report start must be before its end")
	}

	rows, err := s.deliveries.CommissionByRep(ctx, caller.TenantID, scope, from, to)
	if err != nil {
		return nil, err
	}
	report := &CommissionReport{
		From:             from,
		To:               to,
		Reps:             make([]RepCommissionResponse, 0, len(rows)),
		TotalGrossProfit: decimal.Zero,
		TotalCommission:  decimal.Zero,
	}
	for _, row := range rows {
		name := row.RepID.String()
		if rep, err := s.users.FindByID(ctx, caller.TenantID, row.RepID); err == nil {
			name = rep.DisplayName
		}
		report.Reps = append(report.Reps, RepCommissionResponse{
			RepID:       row.RepID,
			RepName:     name,
			Deals:       row.Deals,
			GrossProfit: row.GrossProfit,
			Commission:  row.Commission,
		})
		report.TotalDeals += row.Deals
		report.TotalGrossProfit = report.TotalGrossProfit.Add(row.GrossProfit)
		report.TotalCommission = report.TotalCommission.Add(row.Commission)
	}
	sort.SliceStable(report.Reps, func(i, j int) bool {
		return report.Reps[i].Commission.GreaterThan(report.Reps[j].Commission)
	})
	return report, nil
}

// MonthStart returns midnight UTC on the first of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// markWon moves a customer to won. A lead marked lost while its deal was
// open is reopened through new first, since a booked or delivered unit
// outranks the board.
func markWon(customer *crm.Customer, actorID *uuid.UUID) error {
	if customer.Stage == crm.StageLost {
		if err := customer.MoveTo(crm.StageNew, actorID); err != nil {
			return err
		}
	}
	return customer.MoveTo(crm.StageWon, actorID)
}
