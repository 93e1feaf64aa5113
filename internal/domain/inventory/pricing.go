package inventory

import (
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// priceRoundingStep is the granularity desired prices are rounded up to.
var priceRoundingStep = decimal.NewFromInt(100)

// PricingInput is everything the desired-price formula looks at.
type PricingInput struct {
	Cost          decimal.Decimal
	Freight       decimal.Decimal
	Prep          decimal.Decimal
	MinimumProfit decimal.Decimal
	MarkupPercent decimal.Decimal
}

// LandedCost is cost plus freight plus prep.
func (in PricingInput) LandedCost() decimal.Decimal {
	return in.Cost.Add(in.Freight).Add(in.Prep)
}

// CalculateDesiredPrice returns the lowest price that satisfies both the
// markup and the minimum profit over landed cost, rounded up to the next
// whole hundred dollars.
//
//	desired = ceil100(max(landed * (1 + markup/100), landed + minProfit))
func CalculateDesiredPrice(in PricingInput) (decimal.Decimal, error) {
	for _, v := range []decimal.Decimal{in.Cost, in.Freight, in.Prep, in.MinimumProfit, in.MarkupPercent} {
		if v.IsNegative() {
			return decimal.Zero, shared.NewDomainError("INVALID_PRICING_INPUT", "Pricing inputs cannot be negative")
		}
	}
	landed := in.LandedCost()
	if landed.IsZero() {
		return decimal.Zero, shared.NewDomainError("INVALID_PRICING_INPUT", "Unit cost is required to price a unit")
	}
	markup := landed.Mul(decimal.NewFromInt(1).Add(in.MarkupPercent.Div(decimal.NewFromInt(100))))
	floor := landed.Add(in.MinimumProfit)
	desired := decimal.Max(markup, floor)
	return desired.Div(priceRoundingStep).Ceil().Mul(priceRoundingStep), nil
}

// ProjectedProfit is price minus landed cost.
func ProjectedProfit(price decimal.Decimal, in PricingInput) decimal.Decimal {
	return price.Sub(in.LandedCost())
}
