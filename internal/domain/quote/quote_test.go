package quote

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newDraft(t *testing.T) *Quote {
	t.Helper()
	q, err := NewQuote(uuid.New(), FormatNumber(time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), 7), uuid.New(), uuid.New(), 0)
	require.NoError(t, err)
	return q
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "Q-20260402-0007", FormatNumber(time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC), 7))
}

func TestQuote_Recalculate(t *testing.T) {
	q := newDraft(t)
	assert.Equal(t, StatusDraft, q.Status)
	assert.WithinDuration(t, q.CreatedAt.AddDate(0, 0, DefaultValidDays), q.ValidUntil, time.Second)

	assert.ErrorContains(t, q.Recalculate(), "at least one line")

	require.NoError(t, q.AddLine("2025 Big Tex 14GN", d("10500")))
	require.NoError(t, q.AddLine("Spare tire", d("250")))
	require.NoError(t, q.AddLine("Loyalty discount", d("-750")))
	require.NoError(t, q.SetTerms(Terms{
		DocFee:         d("199"),
		TaxRatePercent: d("8"),
		DownPayment:    d("1014.92"),
		Plan:           finance.Plan{Method: finance.MethodFinance, APRPercent: d("6"), TermMonths: 60},
	}))
	require.NoError(t, q.Recalculate())

	assert.True(t, d("10000").Equal(q.Subtotal))
	assert.True(t, d("815.92").Equal(q.Tax))
	assert.True(t, d("11014.92").Equal(q.Total))
	assert.True(t, d("193.33").Equal(q.Estimate.MonthlyPayment))

	t.Run("discounts cannot exceed price", func(t *testing.T) {
		q := newDraft(t)
		require.NoError(t, q.AddLine("Unit", d("100")))
		require.NoError(t, q.AddLine("Discount", d("-200")))
		assert.Error(t, q.Recalculate())
	})
}

func TestQuote_Lifecycle(t *testing.T) {
	q := newDraft(t)
	require.NoError(t, q.AddLine("Unit", d("5000")))

	require.NoError(t, q.MarkSent(time.Now()))
	assert.Equal(t, StatusSent, q.Status)
	assert.True(t, d("5000").Equal(q.Total))
	require.Len(t, q.GetDomainEvents(), 1)

	assert.Error(t, q.AddLine("Late add", d("1")))

	require.NoError(t, q.Accept(time.Now()))
	assert.Equal(t, StatusAccepted, q.Status)
	assert.False(t, q.IsExpired(time.Now().AddDate(1, 0, 0)))
	assert.Error(t, q.MarkSent(time.Now()))
}

func TestQuote_AcceptExpired(t *testing.T) {
	q := newDraft(t)
	require.NoError(t, q.AddLine("Unit", d("5000")))
	require.NoError(t, q.MarkSent(time.Now()))

	err := q.Accept(q.ValidUntil.Add(time.Hour))
	assert.ErrorContains(t, err, "expired")
	assert.Equal(t, StatusExpired, q.Status)
}

func TestQuote_Expire(t *testing.T) {
	q := newDraft(t)
	require.NoError(t, q.AddLine("Unit", d("5000")))

	assert.False(t, q.Expire(q.ValidUntil.Add(-time.Minute)), "still valid")
	assert.Equal(t, StatusDraft, q.Status)

	after := q.ValidUntil.Add(time.Minute)
	assert.True(t, q.Expire(after))
	assert.Equal(t, StatusExpired, q.Status)
	assert.Equal(t, after, q.UpdatedAt)
	assert.False(t, q.Expire(after), "already expired")

	accepted := newDraft(t)
	require.NoError(t, accepted.Accept(time.Now()))
	assert.False(t, accepted.Expire(accepted.ValidUntil.Add(time.Hour)))
	assert.Equal(t, StatusAccepted, accepted.Status)
}
