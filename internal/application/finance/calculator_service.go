// Package finance exposes the payment calculator to sales staff.
package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"go.uber.org/zap"
)

// CalculatorService prices cash, finance and rent-to-own options.
type CalculatorService struct {
	tenants identity.TenantRepository
	logger  *zap.Logger
}

// NewCalculatorService creates a new CalculatorService
func NewCalculatorService(tenants identity.TenantRepository, logger *zap.Logger) *CalculatorService {
	return &CalculatorService{tenants: tenants, logger: logger}
}

// Calculate prices the request with the dealership's doc fee and tax rate
// unless the caller overrides them.
func (s *CalculatorService) Calculate(ctx context.Context, caller access.Caller, req CalculateRequest) (*EstimateResponse, error) {
	method, err := finance.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if !req.Price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_SALE", "Price must be greater than zero")
	}
	settings, err := s.settings(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	sale := finance.Sale{
		Price:          req.Price,
		DocFee:         settings.DocFee,
		TaxRatePercent: settings.TaxRatePercent,
		DownPayment:    req.DownPayment,
	}
	if req.DocFee != nil {
		sale.DocFee = *req.DocFee
	}
	if req.TaxRatePercent != nil {
		sale.TaxRatePercent = *req.TaxRatePercent
	}
	est, err := finance.Calculate(sale, finance.Plan{Method: method, APRPercent: req.APRPercent, TermMonths: req.TermMonths})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Payment calculated",
		zap.String("tenant_id", caller.TenantID.String()),
		zap.String("method", string(est.Method)),
		zap.Int("term_months", est.TermMonths),
	)
	resp := ToEstimateResponse(sale, est)
	return &resp, nil
}

// Options returns the calculator defaults for the caller's dealership.
func (s *CalculatorService) Options(ctx context.Context, caller access.Caller) (*OptionsResponse, error) {
	settings, err := s.settings(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	return &OptionsResponse{
		DocFee:         settings.DocFee,
		TaxRatePercent: settings.TaxRatePercent,
		RTOTerms:       finance.RTOTerms(),
		Methods:        []string{string(finance.MethodCash), string(finance.MethodFinance), string(finance.MethodRTO)},
	}, nil
}

func (s *CalculatorService) settings(ctx context.Context, tenantID uuid.UUID) (identity.DealershipSettings, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return identity.DealershipSettings{}, err
	}
	return tenant.Settings, nil
}
