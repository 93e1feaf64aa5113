// Package finance holds the payment math used by quotes and the payment
// calculator: amortised loans and rent-to-own schedules.
package finance

import (
	"strconv"

	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Method is how the buyer pays.
type Method string

const (
	MethodCash    Method = "cash"
	MethodFinance Method = "finance"
	MethodRTO     Method = "rto"
)

// ParseMethod validates a payment method, defaulting to cash.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case "":
		return MethodCash, nil
	case MethodCash, MethodFinance, MethodRTO:
		return m, nil
	default:
		return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash, finance or rto")
	}
}

const (
	maxLoanTermMonths = 240
	maxAPRPercent     = 36
	// workingPlaces bounds intermediate precision of compounding.
	workingPlaces = 20
)

var (
	hundred       = decimal.NewFromInt(100)
	twelveHundred = decimal.NewFromInt(1200)
	one           = decimal.NewFromInt(1)
)

// rtoFactors maps supported rent-to-own terms to their total-cost multiplier.
var rtoFactors = map[int]decimal.Decimal{
	24: decimal.RequireFromString("1.45"),
	36: decimal.RequireFromString("1.65"),
	48: decimal.RequireFromString("1.85"),
	60: decimal.RequireFromString("2.05"),
}

// RTOTerms lists supported rent-to-own terms in months.
func RTOTerms() []int {
	return []int{24, 36, 48, 60}
}

// Sale is the cash side of a deal.
type Sale struct {
	Price          decimal.Decimal
	DocFee         decimal.Decimal
	TaxRatePercent decimal.Decimal
	DownPayment    decimal.Decimal
}

// Tax is (price + doc fee) × rate, rounded to cents.
func (s Sale) Tax() decimal.Decimal {
	return s.Price.Add(s.DocFee).Mul(s.TaxRatePercent).Div(hundred).Round(2)
}

// CashTotal is price + doc fee + tax.
func (s Sale) CashTotal() decimal.Decimal {
	return s.Price.Add(s.DocFee).Add(s.Tax())
}

// AmountFinanced is the cash total less the down payment, never negative.
func (s Sale) AmountFinanced() decimal.Decimal {
	return decimal.Max(s.CashTotal().Sub(s.DownPayment), decimal.Zero)
}

// Validate rejects negative inputs.
func (s Sale) Validate() error {
	for _, v := range []decimal.Decimal{s.Price, s.DocFee, s.TaxRatePercent, s.DownPayment} {
		if v.IsNegative() {
			return shared.NewDomainError("INVALID_SALE", "Price, fees, tax rate and down payment cannot be negative")
		}
	}
	if s.TaxRatePercent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_SALE", "Tax rate cannot exceed 100%")
	}
	return nil
}

// MonthlyPayment returns the level payment that amortises principal over
// termMonths at aprPercent:
//
//	P·r / (1 − (1+r)^−n), r = APR/1200; r = 0 → P/n
func MonthlyPayment(principal, aprPercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if termMonths <= 0 || termMonths > maxLoanTermMonths {
		return decimal.Zero, shared.NewDomainError("INVALID_TERM", "Loan term must be 1-"+strconv.Itoa(maxLoanTermMonths)+" months")
	}
	if principal.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_PRINCIPAL", "Principal cannot be negative")
	}
	if aprPercent.IsNegative() || aprPercent.GreaterThan(decimal.NewFromInt(maxAPRPercent)) {
		return decimal.Zero, shared.NewDomainError("INVALID_APR", "APR must be between 0 and "+strconv.Itoa(maxAPRPercent)+"%")
	}
	n := decimal.NewFromInt(int64(termMonths))
	if aprPercent.IsZero() {
		return principal.Div(n).Round(2), nil
	}
	r := aprPercent.Div(twelveHundred)
	growth := compound(one.Add(r), termMonths)
	// P·r / (1 − 1/growth) == P·r·growth / (growth − 1)
	payment := principal.Mul(r).Mul(growth).Div(growth.Sub(one))
	return payment.Round(2), nil
}

func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for range n {
		result = result.Mul(base).Truncate(workingPlaces)
	}
	return result
}

// Estimate is a priced payment plan.
type Estimate struct {
	Method          Method
	CashTotal       decimal.Decimal
	AmountFinanced  decimal.Decimal
	TermMonths      int
	APRPercent      decimal.Decimal
	MonthlyPayment  decimal.Decimal
	TotalOfPayments decimal.Decimal
	FinanceCharge   decimal.Decimal
}

// Plan describes the requested payment option.
type Plan struct {
	Method     Method
	APRPercent decimal.Decimal
	TermMonths int
}

// Calculate prices a sale under a payment plan.
func Calculate(sale Sale, plan Plan) (Estimate, error) {
	if err := sale.Validate(); err != nil {
		return Estimate{}, err
	}
	est := Estimate{Method: plan.Method, CashTotal: sale.CashTotal()}
	switch plan.Method {
	case MethodCash, "":
		est.Method = MethodCash
		est.TotalOfPayments = est.CashTotal
		return est, nil
	case MethodFinance:
		financed := sale.AmountFinanced()
		monthly, err := MonthlyPayment(financed, plan.APRPercent, plan.TermMonths)
		if err != nil {
			return Estimate{}, err
		}
		est.AmountFinanced = financed
		est.TermMonths = plan.TermMonths
		est.APRPercent = plan.APRPercent
		est.MonthlyPayment = monthly
		est.TotalOfPayments = monthly.Mul(decimal.NewFromInt(int64(plan.TermMonths))).Add(sale.DownPayment)
		est.FinanceCharge = decimal.Max(est.TotalOfPayments.Sub(est.CashTotal), decimal.Zero)
		return est, nil
	case MethodRTO:
		rto, err := RentToOwn(sale, plan.TermMonths)
		if err != nil {
			return Estimate{}, err
		}
		return rto, nil
	default:
		return Estimate{}, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash, finance or rto")
	}
}

// RentToOwn prices a rent-to-own agreement: the balance after the down
// payment is multiplied by the term factor and split evenly.
func RentToOwn(sale Sale, termMonths int) (Estimate, error) {
	factor, ok := rtoFactors[termMonths]
	if !ok {
		return Estimate{}, shared.NewDomainError("INVALID_TERM", "Rent-to-own term must be 24, 36, 48 or 60 months")
	}
	balance := sale.AmountFinanced()
	total := balance.Mul(factor).Round(2)
	monthly := total.Div(decimal.NewFromInt(int64(termMonths))).RoundCeil(2)
	cashTotal := sale.CashTotal()
	totalPaid := total.Add(sale.DownPayment)
	return Estimate{
		Method:          MethodRTO,
		CashTotal:       cashTotal,
		AmountFinanced:  balance,
		TermMonths:      termMonths,
		MonthlyPayment:  monthly,
		TotalOfPayments: totalPaid,
		FinanceCharge:   decimal.Max(totalPaid.Sub(cashTotal), decimal.Zero),
	}, nil
}
