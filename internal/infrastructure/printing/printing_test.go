package printing

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-250", "-$250.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFuncs(t *testing.T) {
	assert.Equal(t, "Rent to Own", methodLabel(finance.MethodRTO))
	assert.Equal(t, "Cash", methodLabel(""))
	assert.Equal(t, "Walk In", titleCase("walk_in"))
	assert.Equal(t, "8.99%", formatPercent(decimal.RequireFromString("8.99")))
	assert.Empty(t, formatDate(time.Time{}))
	assert.Equal(t, "March 5, 2026", formatDate(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func newDocument(t *testing.T) QuoteDocument {
	t.Helper()
	tenant, err := identity.NewTenant("BIG-TEX", "Big Tex of Waco")
	require.NoError(t, err)
	customer, err := crm.NewCustomer(tenant.ID, "Dana <Smith>", "dana@example.com", "555-123-4567", crm.SourceWebsite)
	require.NoError(t, err)

	q, err := quote.NewQuote(tenant.ID, "Q-20260301-0007", customer.ID, uuid.New(), 14)
	require.NoError(t, err)
	require.NoError(t, q.AddLine("2025 Big Tex 14GN", decimal.NewFromInt(11000)))
	require.NoError(t, q.AddLine("Fleet discount", decimal.NewFromInt(-500)))
	require.NoError(t, q.SetTerms(quote.Terms{
		DocFee:         decimal.NewFromInt(199),
		TaxRatePercent: decimal.RequireFromString("8.25"),
		Plan:           finance.Plan{Method: finance.MethodFinance, APRPercent: decimal.RequireFromString("8.99"), TermMonths: 60},
	}))
	require.NoError(t, q.Recalculate())
	return QuoteDocument{Quote: q, Customer: customer, Dealership: tenant}
}

func TestTemplateEngine_RenderQuote(t *testing.T) {
	engine, err := NewTemplateEngine("")
	require.NoError(t, err)

	doc := newDocument(t)
	html, err := engine.RenderQuote(doc)
	require.NoError(t, err)

	assert.Contains(t, html, "Big Tex of Waco")
	assert.Contains(t, html, "Q-20260301-0007")
	assert.Contains(t, html, "$11,000.00")
	assert.Contains(t, html, "-$500.00")
	assert.Contains(t, html, "Financing")
	assert.Contains(t, html, FormatMoney(doc.Quote.Estimate.MonthlyPayment))
	assert.Contains(t, html, "Dana &lt;Smith&gt;", "customer input is escaped")
	assert.NotContains(t, html, "<Smith>")
}

func TestTemplateEngine_CashQuoteHasNoPaymentSection(t *testing.T) {
	engine, err := NewTemplateEngine("")
	require.NoError(t, err)
	doc := newDocument(t)
	require.NoError(t, doc.Quote.SetTerms(quote.Terms{}))
	require.NoError(t, doc.Quote.Recalculate())

	html, err := engine.RenderQuote(doc)
	require.NoError(t, err)
	assert.NotContains(t, html, "monthly payments")
}

func TestTemplateEngine_CustomLayoutAndErrors(t *testing.T) {
	engine, err := NewTemplateEngine(`{{.Quote.Number}} {{money .Quote.Total}}`)
	require.NoError(t, err)
	doc := newDocument(t)
	out, err := engine.RenderQuote(doc)
	require.NoError(t, err)
	assert.Equal(t, "Q-20260301-0007 "+FormatMoney(doc.Quote.Total), out)

	_, err = NewTemplateEngine(`{{.Quote.Number`)
	assert.Error(t, err)

	_, err = engine.RenderQuote(QuoteDocument{})
	assert.Error(t, err)
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(config.PDFConfig{}, nil)
	defer r.Close()
	_, err := r.RenderPDF(context.Background(), "  ")
	assert.Error(t, err)
}

func TestChromedpRenderer_RenderPDF(t *testing.T) {
	path := ""
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		t.Skip("chrome not installed")
	}

	r := NewChromedpRenderer(config.PDFConfig{ChromePath: path, Timeout: 30 * time.Second, MaxParallel: 1}, nil)
	defer r.Close()

	pdf, err := r.RenderPDF(context.Background(), "<html><body><h1>Quote</h1></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
