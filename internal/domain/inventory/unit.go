package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitStatus is where a trailer sits in the sales cycle.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusOnHold    UnitStatus = "on_hold"
	UnitStatusSold      UnitStatus = "sold"
)

// Condition is new or used.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// Unit is a trailer on the lot.
type Unit struct {
	shared.TenantAggregateRoot
	StockNumber  string
	VIN          string
	Year         int
	Make         string
	Model        string
	Category     string
	Condition    Condition
	Cost         decimal.Decimal
	Freight      decimal.Decimal
	Prep         decimal.Decimal
	ListPrice    decimal.Decimal
	DesiredPrice decimal.Decimal
	Status       UnitStatus
	HoldCustomer *uuid.UUID
	SoldTo       *uuid.UUID
	SoldAt       *time.Time
}

// UnitSpec carries the descriptive fields of a unit.
type UnitSpec struct {
	StockNumber string
	VIN         string
	Year        int
	Make        string
	Model       string
	Category    string
	Condition   Condition
}

// UnitCosts carries a unit's cost build-up.
type UnitCosts struct {
	Cost    decimal.Decimal
	Freight decimal.Decimal
	Prep    decimal.Decimal
}

// NewUnit creates an available unit.
func NewUnit(tenantID uuid.UUID, spec UnitSpec, costs UnitCosts) (*Unit, error) {
	u := &Unit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              UnitStatusAvailable,
	}
	if err := u.UpdateSpec(spec); err != nil {
		return nil, err
	}
	if err := u.setCosts(costs); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateSpec replaces the descriptive fields.
func (u *Unit) UpdateSpec(spec UnitSpec) error {
	spec.StockNumber = strings.ToUpper(strings.TrimSpace(spec.StockNumber))
	if spec.StockNumber == "" || len(spec.StockNumber) > 50 {
		return shared.NewDomainError("INVALID_STOCK_NUMBER", "Stock number must be 1-50 characters")
	}
	spec.VIN = strings.ToUpper(strings.TrimSpace(spec.VIN))
	if len(spec.VIN) > 17 {
		return shared.NewDomainError("INVALID_VIN", "VIN cannot exceed 17 characters")
	}
	if spec.Year != 0 && (spec.Year < 1950 || spec.Year > time.Now().Year()+2) {
		return shared.NewDomainError("INVALID_YEAR", "Model year is out of range")
	}
	switch spec.Condition {
	case "":
		spec.Condition = ConditionNew
	case ConditionNew, ConditionUsed:
	default:
		return shared.NewDomainError("INVALID_CONDITION", "Condition must be new or used")
	}
	u.StockNumber = spec.StockNumber
	u.VIN = spec.VIN
	u.Year = spec.Year
	u.Make = strings.TrimSpace(spec.Make)
	u.Model = strings.TrimSpace(spec.Model)
	u.Category = strings.ToLower(strings.TrimSpace(spec.Category))
	u.Condition = spec.Condition
	u.Touch()
	return nil
}

func (u *Unit) setCosts(c UnitCosts) error {
	if c.Cost.IsNegative() || c.Freight.IsNegative() || c.Prep.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Costs cannot be negative")
	}
	u.Cost = c.Cost
	u.Freight = c.Freight
	u.Prep = c.Prep
	u.Touch()
	return nil
}

// UpdateCosts replaces the cost build-up. Sold units are frozen.
func (u *Unit) UpdateCosts(c UnitCosts) error {
	if u.Status == UnitStatusSold {
		return shared.NewDomainError("UNIT_SOLD", "Cannot change costs of a sold unit")
	}
	return u.setCosts(c)
}

// LandedCost is cost plus freight plus prep.
func (u *Unit) LandedCost() decimal.Decimal {
	return u.Cost.Add(u.Freight).Add(u.Prep)
}

// Reprice recomputes the desired price from dealership rules.
func (u *Unit) Reprice(minimumProfit, markupPercent decimal.Decimal) error {
	price, err := CalculateDesiredPrice(PricingInput{
		Cost:          u.Cost,
		Freight:       u.Freight,
		Prep:          u.Prep,
		MinimumProfit: minimumProfit,
		MarkupPercent: markupPercent,
	})
	if err != nil {
		return err
	}
	u.DesiredPrice = price
	if u.ListPrice.IsZero() {
		u.ListPrice = price
	}
	u.Touch()
	return nil
}

// SetListPrice sets the advertised price.
func (u *Unit) SetListPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "List price cannot be negative")
	}
	u.ListPrice = p
	u.Touch()
	return nil
}

// IsBelowDesired flags list prices that undercut the pricing rules.
func (u *Unit) IsBelowDesired() bool {
	return u.ListPrice.LessThan(u.DesiredPrice)
}

// Hold reserves an available unit for a customer.
func (u *Unit) Hold(customerID uuid.UUID) error {
	if u.Status != UnitStatusAvailable {
		return shared.NewDomainError("UNIT_NOT_AVAILABLE", "Only available units can be put on hold")
	}
	u.Status = UnitStatusOnHold
	u.HoldCustomer = &customerID
	u.Touch()
	return nil
}

// Release returns a held unit to the lot.
func (u *Unit) Release() error {
	if u.Status != UnitStatusOnHold {
		return shared.NewDomainError("UNIT_NOT_ON_HOLD", "Unit is not on hold")
	}
	u.Status = UnitStatusAvailable
	u.HoldCustomer = nil
	u.Touch()
	return nil
}

// MarkSold records the sale. A unit held for another customer cannot be sold.
func (u *Unit) MarkSold(customerID uuid.UUID, at time.Time) error {
	switch u.Status {
	case UnitStatusSold:
		return shared.NewDomainError("UNIT_SOLD", "Unit is already sold")
	case UnitStatusOnHold:
		if u.HoldCustomer != nil && *u.HoldCustomer != customerID {
			return shared.NewDomainError("UNIT_ON_HOLD", "Unit is on hold for another customer")
		}
	}
	u.Status = UnitStatusSold
	u.SoldTo = &customerID
	u.SoldAt = &at
	u.HoldCustomer = nil
	u.Touch()
	return nil
}

// Title renders "2025 Big Tex 14GN" style names.
func (u *Unit) Title() string {
	parts := make([]string, 0, 3)
	if u.Year != 0 {
		parts = append(parts, strconv.Itoa(u.Year))
	}
	if u.Make != "" {
		parts = append(parts, u.Make)
	}
	if u.Model != "" {
		parts = append(parts, u.Model)
	}
	if len(parts) == 0 {
		return u.StockNumber
	}
	return strings.Join(parts, " ")
}
