package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/inventory"
	"github.com/remotive/saleshub/internal/domain/sales"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDashboardService_Summary(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	ctx := context.Background()
	owner := d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	rep := d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, nil)
	other := d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)

	customers := persistence.NewGormCustomerRepository(db)
	deliveries := persistence.NewGormDeliveryRepository(db)
	units := persistence.NewGormUnitRepository(db)

	seed := func(name string, owner *identity.User, stage crm.Stage) *crm.Customer {
		c, err := crm.NewCustomer(d.TenantID(), name, uuid.NewString()+"@buyers.test", "", crm.SourceReferral)
		require.NoError(t, err)
		require.NoError(t, c.AssignTo(owner.ID, nil, nil))
		if stage != crm.StageNew {
			require.NoError(t, c.MoveTo(stage, nil))
		}
		require.NoError(t, customers.Save(ctx, c))
		return c
	}
	seed("A", rep, crm.StageNew)
	won := seed("B", rep, crm.StageWon)
	seed("C", other, crm.StageQualified)

	for i, price := range []string{"10500", "6500"} {
		u, err := inventory.NewUnit(d.TenantID(), inventory.UnitSpec{StockNumber: "U-" + string(rune('1'+i))}, inventory.UnitCosts{Cost: decimal.NewFromInt(4000)})
		require.NoError(t, err)
		require.NoError(t, u.SetListPrice(decimal.RequireFromString(price)))
		require.NoError(t, units.Save(ctx, u))
	}

	deal, err := sales.NewDelivery(d.TenantID(), won.ID, uuid.New(), rep.ID, nil, sales.DealTerms{
		SalePrice: decimal.NewFromInt(10000),
		UnitCost:  decimal.NewFromInt(8000),
		Rule:      sales.CommissionRule{RatePercent: decimal.NewFromInt(25), Minimum: decimal.NewFromInt(200)},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, deal.Complete(time.Now()))
	require.NoError(t, deliveries.Save(ctx, deal))

	svc := NewDashboardService(customers, deliveries, units, d.Users, zap.NewNop())

	mine, err := svc.Summary(ctx, access.Caller{TenantID: d.TenantID(), UserID: rep.ID, Role: rep.Role})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalCustomers)
	assert.Equal(t, int64(2), mine.NewLeads7d)
	require.Len(t, mine.Pipeline, len(crm.PipelineStages))
	assert.Equal(t, "new", mine.Pipeline[0].Stage)
	assert.Equal(t, int64(1), mine.Pipeline[0].Count)
	assert.Equal(t, int64(1), mine.DeliveredThisMonth)
	assert.True(t, mine.CommissionMonth.Equal(decimal.NewFromInt(500)), mine.CommissionMonth.String())
	assert.Equal(t, int64(2), mine.AvailableUnits)
	assert.True(t, mine.AvailableValue.Equal(decimal.NewFromInt(17000)), mine.AvailableValue.String())

	theirs, err := svc.Summary(ctx, access.Caller{TenantID: d.TenantID(), UserID: other.ID, Role: other.Role})
	require.NoError(t, err)
	assert.Equal(t, int64(1), theirs.TotalCustomers)
	assert.Zero(t, theirs.DeliveredThisMonth)
	assert.True(t, theirs.CommissionMonth.IsZero())

	all, err := svc.Summary(ctx, access.Caller{TenantID: d.TenantID(), UserID: owner.ID, Role: owner.Role})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCustomers)
	assert.Equal(t, int64(1), all.DeliveredThisMonth)
}
