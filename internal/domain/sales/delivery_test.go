package sales

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var defaultRule = CommissionRule{RatePercent: d("25"), Minimum: d("200")}

func TestCalculateCommission(t *testing.T) {
	rep := uuid.New()
	split := uuid.New()

	t.Run("rate of gross profit", func(t *testing.T) {
		lines := CalculateCommission(d("4000"), defaultRule, rep, nil)
		require.Len(t, lines, 1)
		assert.True(t, d("1000").Equal(lines[0].Amount))
	})

	t.Run("minimum applies to thin deals", func(t *testing.T) {
		lines := CalculateCommission(d("300"), defaultRule, rep, nil)
		assert.True(t, d("200").Equal(lines[0].Amount))
	})

	t.Run("split halves the pot and primary keeps the odd cent", func(t *testing.T) {
		lines := CalculateCommission(d("1000.04"), defaultRule, rep, &split)
		require.Len(t, lines, 2)
		// 25% of 1000.04 = 250.01
		assert.Equal(t, rep, lines[0].RepID)
		assert.True(t, d("125.01").Equal(lines[0].Amount), lines[0].Amount.String())
		assert.True(t, d("125").Equal(lines[1].Amount), lines[1].Amount.String())
	})

	t.Run("splitting with yourself is no split", func(t *testing.T) {
		lines := CalculateCommission(d("4000"), defaultRule, rep, &rep)
		assert.Len(t, lines, 1)
	})
}

func TestGrossProfit(t *testing.T) {
	assert.True(t, d("2801").Equal(GrossProfit(d("12000"), d("9000"), d("199"))))
	assert.True(t, decimal.Zero.Equal(GrossProfit(d("8000"), d("9000"), d("0"))))
}

func TestDelivery_Lifecycle(t *testing.T) {
	rep := uuid.New()
	split := uuid.New()
	del, err := NewDelivery(uuid.New(), uuid.New(), uuid.New(), rep, &split,
		DealTerms{SalePrice: d("12000"), UnitCost: d("9000"), Fees: d("200"), Rule: defaultRule},
		time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, DeliveryScheduled, del.Status)
	assert.True(t, d("2800").Equal(del.GrossProfit))
	assert.True(t, del.InvolvesRep(split))
	require.Len(t, del.GetDomainEvents(), 1)

	require.NoError(t, del.Reschedule(time.Now().Add(72*time.Hour)))
	require.NoError(t, del.Complete(time.Now()))
	assert.Equal(t, DeliveryDelivered, del.Status)
	assert.True(t, d("700").Equal(del.TotalCommission()))
	require.Len(t, del.Commissions, 2)
	assert.Equal(t, EventTypeDeliveryCompleted, del.GetDomainEvents()[1].EventType())

	assert.Error(t, del.Complete(time.Now()))
	assert.Error(t, del.Cancel("changed mind"))
	assert.Error(t, del.Reschedule(time.Now()))
}

func TestNewDelivery_Validation(t *testing.T) {
	tenant, cust, unit, rep := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	when := time.Now()

	_, err := NewDelivery(tenant, uuid.Nil, unit, rep, nil, DealTerms{SalePrice: d("1"), Rule: defaultRule}, when)
	assert.Error(t, err)
	_, err = NewDelivery(tenant, cust, unit, rep, nil, DealTerms{SalePrice: d("0"), Rule: defaultRule}, when)
	assert.ErrorContains(t, err, "Sale price")
	_, err = NewDelivery(tenant, cust, unit, rep, nil, DealTerms{SalePrice: d("1"), Rule: CommissionRule{RatePercent: d("120")}}, when)
	assert.Error(t, err)
	_, err = NewDelivery(tenant, cust, unit, rep, nil, DealTerms{SalePrice: d("1"), Rule: defaultRule}, time.Time{})
	assert.ErrorContains(t, err, "date")

	del, err := NewDelivery(tenant, cust, unit, rep, &rep, DealTerms{SalePrice: d("1"), Rule: defaultRule}, when)
	require.NoError(t, err)
	assert.Nil(t, del.SplitRepID)

	require.NoError(t, del.Cancel("financing fell through"))
	assert.Equal(t, DeliveryCancelled, del.Status)
	assert.Equal(t, "financing fell through", del.Notes)
}
