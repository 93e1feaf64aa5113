package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUnit(t *testing.T) *Unit {
	t.Helper()
	u, err := NewUnit(uuid.New(), UnitSpec{StockNumber: " bt-1001 ", Year: 2025, Make: "Big Tex", Model: "14GN", Category: "Gooseneck"},
		UnitCosts{Cost: d("9000"), Freight: d("400")})
	require.NoError(t, err)
	return u
}

func TestNewUnit(t *testing.T) {
	u := newTestUnit(t)

	assert.Equal(t, "BT-1001", u.StockNumber)
	assert.Equal(t, ConditionNew, u.Condition)
	assert.Equal(t, "gooseneck", u.Category)
	assert.Equal(t, UnitStatusAvailable, u.Status)
	assert.Equal(t, "2025 Big Tex 14GN", u.Title())
	assert.True(t, d("9400").Equal(u.LandedCost()))

	_, err := NewUnit(uuid.New(), UnitSpec{}, UnitCosts{})
	assert.Error(t, err)
	_, err = NewUnit(uuid.New(), UnitSpec{StockNumber: "A1", Condition: "salvage"}, UnitCosts{})
	assert.Error(t, err)
	_, err = NewUnit(uuid.New(), UnitSpec{StockNumber: "A1"}, UnitCosts{Cost: d("-1")})
	assert.Error(t, err)
}

func TestUnit_Reprice(t *testing.T) {
	u := newTestUnit(t)

	require.NoError(t, u.Reprice(d("1500"), d("20")))
	assert.True(t, d("11300").Equal(u.DesiredPrice), u.DesiredPrice.String())
	assert.True(t, u.ListPrice.Equal(u.DesiredPrice), "list price defaults to desired")

	require.NoError(t, u.SetListPrice(d("10999")))
	assert.True(t, u.IsBelowDesired())
}

func TestUnit_HoldAndSell(t *testing.T) {
	u := newTestUnit(t)
	buyer := uuid.New()
	other := uuid.New()

	require.NoError(t, u.Hold(buyer))
	assert.Error(t, u.Hold(other))
	assert.ErrorContains(t, u.MarkSold(other, time.Now()), "another customer")

	require.NoError(t, u.Release())
	assert.Error(t, u.Release())

	require.NoError(t, u.Hold(buyer))
	require.NoError(t, u.MarkSold(buyer, time.Now()))
	assert.Equal(t, UnitStatusSold, u.Status)
	assert.Equal(t, buyer, *u.SoldTo)
	assert.Nil(t, u.HoldCustomer)

	assert.Error(t, u.MarkSold(buyer, time.Now()))
	assert.Error(t, u.UpdateCosts(UnitCosts{Cost: d("1")}))
}
