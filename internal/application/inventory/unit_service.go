package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errInventoryManagersOnly = shared.NewDomainError("FORBIDDEN", "Only managers and administrators can change inventory")

// UnitService manages trailers on the lot.
type UnitService struct {
	units     inventory.UnitRepository
	tenants   identity.TenantRepository
	customers crm.CustomerRepository
	resolver  *access.Resolver
	logger    *zap.Logger
	now       func() time.Time
}

// NewUnitService creates a new UnitService
func NewUnitService(
	units inventory.UnitRepository,
	tenants identity.TenantRepository,
	customers crm.CustomerRepository,
	users identity.UserRepository,
	logger *zap.Logger,
) *UnitService {
	return &UnitService{
		units:     units,
		tenants:   tenants,
		customers: customers,
		resolver:  access.NewResolver(users),
		logger:    logger,
		now:       time.Now,
	}
}

// Create adds a unit and prices it with the dealership rules.
func (s *UnitService) Create(ctx context.Context, caller access.Caller, req CreateUnitRequest) (*UnitResponse, error) {
	if !caller.Role.CanManageTeam() {
		return nil, errInventoryManagersOnly
	}
	unit, err := inventory.NewUnit(caller.TenantID, inventory.UnitSpec{
		StockNumber: req.StockNumber,
		VIN:         req.VIN,
		Year:        req.Year,
		Make:        req.Make,
		Model:       req.Model,
		Category:    req.Category,
		Condition:   inventory.Condition(req.Condition),
	}, inventory.UnitCosts{Cost: req.Cost, Freight: req.Freight, Prep: req.Prep})
	if err != nil {
		return nil, err
	}

	exists, err := s.units.ExistsByStockNumber(ctx, caller.TenantID, unit.StockNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Stock number "+unit.StockNumber+" is already in inventory")
	}

	if req.ListPrice != nil {
		if err := unit.SetListPrice(*req.ListPrice); err != nil {
			return nil, err
		}
	}
	if err := s.reprice(ctx, caller.TenantID, unit); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}

	s.logger.Info("Unit created",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("unit_id", unit.ID.String()),
		zap.String("stock_number", unit.StockNumber),
		zap.String("desired_price", unit.DesiredPrice.String()),
	)
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// reprice applies the tenant's pricing rules. A unit without costs keeps a
// zero desired price.
func (s *UnitService) reprice(ctx context.Context, tenantID uuid.UUID, unit *inventory.Unit) error {
	if unit.LandedCost().IsZero() {
		return nil
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	return unit.Reprice(tenant.Settings.MinimumProfit, tenant.Settings.MarkupPercent)
}

// Get returns a unit.
func (s *UnitService) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*UnitResponse, error) {
	unit, err := s.units.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// List returns a page of units.
func (s *UnitService) List(ctx context.Context, caller access.Caller, f UnitListFilter) (*UnitListResult, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	filter.Search = f.Search
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir

	units, total, err := s.units.List(ctx, caller.TenantID, inventory.UnitQuery{
		Filter:    filter,
		Status:    inventory.UnitStatus(f.Status),
		Category:  f.Category,
		Condition: inventory.Condition(f.Condition),
	})
	if err != nil {
		return nil, err
	}
	out := make([]UnitResponse, len(units))
	for i := range units {
		out[i] = ToUnitResponse(&units[i])
	}
	return &UnitListResult{
		Units:      out,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: filter.TotalPages(total),
	}, nil
}

// Update edits a unit and recomputes its desired price.
func (s *UnitService) Update(ctx context.Context, caller access.Caller, id uuid.UUID, req UpdateUnitRequest) (*UnitResponse, error) {
	if !caller.Role.CanManageTeam() {
		return nil, errInventoryManagersOnly
	}
	unit, err := s.units.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	spec := inventory.UnitSpec{
		StockNumber: unit.StockNumber,
		VIN:         unit.VIN,
		Year:        unit.Year,
		Make:        unit.Make,
		Model:       unit.Model,
		Category:    unit.Category,
		Condition:   unit.Condition,
	}
	if req.VIN != nil {
		spec.VIN = *req.VIN
	}
	if req.Year != nil {
		spec.Year = *req.Year
	}
	if req.Make != nil {
		spec.Make = *req.Make
	}
	if req.Model != nil {
		spec.Model = *req.Model
	}
	if req.Category != nil {
		spec.Category = *req.Category
	}
	if req.Condition != nil {
		spec.Condition = inventory.Condition(*req.Condition)
	}
	if err := unit.UpdateSpec(spec); err != nil {
		return nil, err
	}

	if req.Cost != nil || req.Freight != nil || req.Prep != nil {
		costs := inventory.UnitCosts{Cost: unit.Cost, Freight: unit.Freight, Prep: unit.Prep}
		if req.Cost != nil {
			costs.Cost = *req.Cost
		}
		if req.Freight != nil {
			costs.Freight = *req.Freight
		}
		if req.Prep != nil {
			costs.Prep = *req.Prep
		}
		if err := unit.UpdateCosts(costs); err != nil {
			return nil, err
		}
	}
	if req.ListPrice != nil {
		if err := unit.SetListPrice(*req.ListPrice); err != nil {
			return nil, err
		}
	}
	if err := s.reprice(ctx, caller.TenantID, unit); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(unit)
	return &resp, nil
}

// Hold reserves an available unit for a customer the caller can see.
func (s *UnitService) Hold(ctx context.Context, caller access.Caller, id uuid.UUID, req HoldUnitRequest) (*UnitResponse, error) {
	viewer, err := s.resolver.Viewer(ctx, caller)
	if err != nil {
		return nil, err
	}
	customer, err := access.VisibleCustomer(ctx, s.customers, viewer, req.CustomerID)
	if err != nil {
		return nil, err
	}
	unit, err := s.units.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := unit.Hold(customer.ID); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}

	s.logger.Info("Unit put on hold",
		zap.String("unit_id", unit.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("user_id", caller.UserID.String()),
	)
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// Release returns a held unit to the lot. Whoever can see the holding
// customer may release it, as may managers and administrators.
func (s *UnitService) Release(ctx context.Context, caller access.Caller, id uuid.UUID) (*UnitResponse, error) {
	unit, err := s.units.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanManageTeam() && unit.HoldCustomer != nil {
		viewer, err := s.resolver.Viewer(ctx, caller)
		if err != nil {
			return nil, err
		}
		if _, err := access.VisibleCustomer(ctx, s.customers, viewer, *unit.HoldCustomer); err != nil {
			return nil, shared.NewDomainError("FORBIDDEN", "This unit is held for another rep's customer")
		}
	}
	if err := unit.Release(); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// MarkSold records a sale outside the delivery workflow.
func (s *UnitService) MarkSold(ctx context.Context, caller access.Caller, id uuid.UUID, customerID uuid.UUID) (*UnitResponse, error) {
	if !caller.Role.CanManageTeam() {
		return nil, errInventoryManagersOnly
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "unit", "mark_sold", telemetry.AttrUnitID, id.String())
	defer span.End()

	if _, err := s.customers.FindByID(ctx, caller.TenantID, customerID); err != nil {
		return nil, err
	}
	unit, err := s.units.FindByID(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := unit.MarkSold(customerID, s.now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}
	s.logger.Info("Unit marked sold",
		zap.String("unit_id", unit.ID.String()),
		zap.String("customer_id", customerID.String()),
	)
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// PricePreview runs the pricing rules without saving anything.
func (s *UnitService) PricePreview(ctx context.Context, caller access.Caller, req PricePreviewRequest) (*PricePreviewResponse, error) {
	tenant, err := s.tenants.FindByID(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	in := inventory.PricingInput{
		Cost:          req.Cost,
		Freight:       req.Freight,
		Prep:          req.Prep,
		MinimumProfit: tenant.Settings.MinimumProfit,
		MarkupPercent: tenant.Settings.MarkupPercent,
	}
	if req.MinimumProfit != nil {
		in.MinimumProfit = *req.MinimumProfit
	}
	if req.MarkupPercent != nil {
		in.MarkupPercent = *req.MarkupPercent
	}
	desired, err := inventory.CalculateDesiredPrice(in)
	if err != nil {
		return nil, err
	}
	profit := inventory.ProjectedProfit(desired, in)
	margin := decimal.Zero
	if desired.IsPositive() {
		margin = profit.Div(desired).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &PricePreviewResponse{
		LandedCost:      in.LandedCost(),
		DesiredPrice:    desired,
		ProjectedProfit: profit,
		MarginPercent:   margin,
		MinimumProfit:   in.MinimumProfit,
		MarkupPercent:   in.MarkupPercent,
	}, nil
}

// Summary reports what is on the lot.
func (s *UnitService) Summary(ctx context.Context, caller access.Caller) (inventory.InventorySummary, error) {
	return s.units.Summary(ctx, caller.TenantID)
}
