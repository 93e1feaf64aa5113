package finance

import (
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CalculateRequest prices a sale under a payment option. Nil doc fee and
// tax rate fall back to the dealership settings.
type CalculateRequest struct {
	Price          decimal.Decimal  `json:"price"`
	DocFee         *decimal.Decimal `json:"doc_fee"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	DownPayment    decimal.Decimal  `json:"down_payment"`
	Method         string           `json:"method" binding:"omitempty,oneof=cash finance rto"`
	APRPercent     decimal.Decimal  `json:"apr_percent"`
	TermMonths     int              `json:"term_months" binding:"omitempty,min=1,max=240"`
}

// EstimateResponse is a priced payment option
type EstimateResponse struct {
	Method          string          `json:"method"`
	Price           decimal.Decimal `json:"price"`
	DocFee          decimal.Decimal `json:"doc_fee"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
	Tax             decimal.Decimal `json:"tax"`
	DownPayment     decimal.Decimal `json:"down_payment"`
	CashTotal       decimal.Decimal `json:"cash_total"`
	AmountFinanced  decimal.Decimal `json:"amount_financed"`
	TermMonths      int             `json:"term_months,omitempty"`
	APRPercent      decimal.Decimal `json:"apr_percent"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TotalOfPayments decimal.Decimal `json:"total_of_payments"`
	FinanceCharge   decimal.Decimal `json:"finance_charge"`
}

// ToEstimateResponse flattens a sale and its estimate
func ToEstimateResponse(sale finance.Sale, est finance.Estimate) EstimateResponse {
	return EstimateResponse{
		Method:          string(est.Method),
		Price:           sale.Price,
		DocFee:          sale.DocFee,
		TaxRatePercent:  sale.TaxRatePercent,
		Tax:             sale.Tax(),
		DownPayment:     sale.DownPayment,
		CashTotal:       est.CashTotal,
		AmountFinanced:  est.AmountFinanced,
		TermMonths:      est.TermMonths,
		APRPercent:      est.APRPercent,
		MonthlyPayment:  est.MonthlyPayment,
		TotalOfPayments: est.TotalOfPayments,
		FinanceCharge:   est.FinanceCharge,
	}
}

// OptionsResponse lists the defaults the calculator starts from
type OptionsResponse struct {
	DocFee         decimal.Decimal `json:"doc_fee"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	RTOTerms       []int           `json:"rto_terms"`
	Methods        []string        `json:"methods"`
}
