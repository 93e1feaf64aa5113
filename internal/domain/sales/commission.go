package sales

import (
	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// CommissionRule is the payout rule a delivery is settled under.
type CommissionRule struct {
	RatePercent decimal.Decimal
	Minimum     decimal.Decimal
}

// Validate rejects rates outside 0..100 and negative minimums.
func (r CommissionRule) Validate() error {
	if r.RatePercent.IsNegative() || r.RatePercent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_COMMISSION_RATE", "Commission rate must be between 0 and 100")
	}
	if r.Minimum.IsNegative() {
		return shared.NewDomainError("INVALID_COMMISSION_RATE", "Minimum commission cannot be negative")
	}
	return nil
}

// CommissionLine is one rep's share of a deal.
type CommissionLine struct {
	RepID  uuid.UUID
	Amount decimal.Decimal
}

// GrossProfit is sale price less unit cost and fees, floored at zero.
func GrossProfit(salePrice, unitCost, fees decimal.Decimal) decimal.Decimal {
	return decimal.Max(salePrice.Sub(unitCost).Sub(fees), decimal.Zero)
}

// CalculateCommission settles a deal: rate% of gross profit, never below the
// flat minimum. With a split rep the pot is halved; the primary rep keeps any
// odd cent.
func CalculateCommission(gross decimal.Decimal, rule CommissionRule, repID uuid.UUID, splitRepID *uuid.UUID) []CommissionLine {
	pot := gross.Mul(rule.RatePercent).Div(hundred).Round(2)
	if pot.LessThan(rule.Minimum) {
		pot = rule.Minimum
	}
	if splitRepID == nil || *splitRepID == repID {
		return []CommissionLine{{RepID: repID, Amount: pot}}
	}
	half := pot.Div(two).RoundFloor(2)
	return []CommissionLine{
		{RepID: repID, Amount: pot.Sub(half)},
		{RepID: *splitRepID, Amount: half},
	}
}

// RepCommission sums commission for one rep over a period.
type RepCommission struct {
	RepID       uuid.UUID
	Deals       int64
	GrossProfit decimal.Decimal
	Commission  decimal.Decimal
}
