// Package dashboard assembles the landing-page numbers for a signed-in user.
package dashboard

import (
	"context"
	"time"

	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// newLeadWindow is how far back "new leads" looks.
const newLeadWindow = 7 * 24 * time.Hour

// StageCount is one pipeline column
type StageCount struct {
	Stage string `json:"stage"`
	Count int64  `json:"count"`
}

// Summary is the dashboard payload
type Summary struct {
	Pipeline            []StageCount    `json:"pipeline"`
	TotalCustomers      int64           `json:"total_customers"`
	NewLeads7d          int64           `json:"new_leads_7d"`
	HotLeads            int64           `json:"hot_leads"`
	DeliveredThisMonth  int64           `json:"delivered_this_month"`
	GrossThisMonth      decimal.Decimal `json:"gross_profit_this_month"`
	CommissionMonth     decimal.Decimal `json:"commission_this_month"`
	ScheduledDeliveries int64           `json:"scheduled_deliveries"`
	AvailableUnits      int64           `json:"available_units"`
	AvailableValue      decimal.Decimal `json:"available_value"`
	UnitsOnHold         int64           `json:"units_on_hold"`
	MonthStart          time.Time       `json:"month_start"`
}

// DashboardService reads dashboard counters, scoped by the caller's role.
type DashboardService struct {
	customers  crm.CustomerRepository
	deliveries sales.DeliveryRepository
	units      inventory.UnitRepository
	resolver   *access.Resolver
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	customers crm.CustomerRepository,
	deliveries sales.DeliveryRepository,
	units inventory.UnitRepository,
	users identity.UserRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		customers:  customers,
		deliveries: deliveries,
		units:      units,
		resolver:   access.NewResolver(users),
		logger:     logger,
		now:        time.Now,
	}
}

// Summary returns pipeline counts over visible customers, this month's
// deliveries and commission within the caller's rep scope, and lot totals.
func (s *DashboardService) Summary(ctx context.Context, caller access.Caller) (*Summary, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	vis := crm.VisibilityFor(viewer)
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	counts, err := s.customers.CountByStage(ctx, caller.TenantID, vis)
	if err != nil {
		return nil, err
	}
	byStage := make(map[crm.Stage]int64, len(counts))
	for _, c := range counts {
		byStage[c.Stage] = c.Count
	}
	out := &Summary{Pipeline: make([]StageCount, 0, len(crm.PipelineStages)), MonthStart: monthStart}
	for _, st := range crm.PipelineStages {
		out.Pipeline = append(out.Pipeline, StageCount{Stage: string(st), Count: byStage[st]})
		out.TotalCustomers += byStage[st]
	}

	if out.NewLeads7d, err = s.customers.CountCreatedSince(ctx, caller.TenantID, vis, now.Add(-newLeadWindow)); err != nil {
		return nil, err
	}
	if out.HotLeads, err = s.customers.CountByTemperature(ctx, caller.TenantID, vis, crm.TemperatureHot); err != nil {
		return nil, err
	}

	scope, err := s.resolver.RepScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.deliveries.Summary(ctx, caller.TenantID, scope, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	out.DeliveredThisMonth = deliveries.Delivered
	out.GrossThisMonth = deliveries.GrossProfit
	out.ScheduledDeliveries = deliveries.Scheduled

	commission, err := s.deliveries.CommissionByRep(ctx, caller.TenantID, scope, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	out.CommissionMonth = decimal.Zero
	for _, row := range commission {
		out.CommissionMonth = out.CommissionMonth.Add(row.Commission)
	}

	lot, err := s.units.Summary(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	out.AvailableUnits = lot.AvailableCount
	out.AvailableValue = lot.AvailableValue
	out.UnitsOnHold = lot.OnHoldCount
	return out, nil
}
