package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// QuoteDocument is everything the quote template can print.
type QuoteDocument struct {
	Quote      *quote.Quote
	Customer   *crm.Customer
	Unit       *inventory.Unit
	Dealership *identity.Tenant
	PreparedBy *identity.User
}

// TemplateEngine renders quote documents with html/template. Money and
// numbers are formatted for US English.
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the quote layout. An empty layout selects the
// built-in one.
func NewTemplateEngine(layout string) (*TemplateEngine, error) {
	if strings.TrimSpace(layout) == "" {
		layout = defaultQuoteLayout
	}
	tmpl, err := template.New("quote").Funcs(FuncMap()).Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("parse quote template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderQuote renders a quote to a standalone HTML page.
func (e *TemplateEngine) RenderQuote(doc QuoteDocument) (string, error) {
	if doc.Quote == nil {
		return "", fmt.Errorf("render quote: quote is required")
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render quote %s: %w", doc.Quote.Number, err)
	}
	return buf.String(), nil
}

var (
	printer = message.NewPrinter(language.AmericanEnglish)
	titler  = cases.Title(language.AmericanEnglish)
)

// FuncMap returns the helpers available to quote templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":      FormatMoney,
		"percent":    formatPercent,
		"date":       formatDate,
		"title":      titleCase,
		"method":     methodLabel,
		"upper":      strings.ToUpper,
		"isFinanced": isFinanced,
	}
}

// FormatMoney renders an amount as US dollars: $12,345.67, -$5.00.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	cents := fixed[len(fixed)-2:]
	return sign + "$" + printer.Sprintf("%d", d.IntPart()) + "." + cents
}

func formatPercent(d decimal.Decimal) string {
	return d.Round(3).String() + "%"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func titleCase(s string) string {
	return titler.String(strings.ReplaceAll(s, "_", " "))
}

func methodLabel(m finance.Method) string {
	switch m {
	case finance.MethodFinance:
		return "Financing"
	case finance.MethodRTO:
		return "Rent to Own"
	default:
		return "Cash"
	}
}

func isFinanced(e finance.Estimate) bool {
	return e.Method == finance.MethodFinance || e.Method == finance.MethodRTO
}
