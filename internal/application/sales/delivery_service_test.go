package sales

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
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 15, 17, 0, 0, 0, time.UTC)

type dealFixture struct {
	svc        *DeliveryService
	d          *testutil.Dealership
	customers  *persistence.GormCustomerRepository
	units      *persistence.GormUnitRepository
	activities *persistence.GormActivityRepository
	events     *testutil.RecordingPublisher

	owner   *identity.User
	manager *identity.User
	rep     *identity.User
	other   *identity.User
}

func newDealFixture(t *testing.T) *dealFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	f := &dealFixture{
		d:          d,
		customers:  persistence.NewGormCustomerRepository(db),
		units:      persistence.NewGormUnitRepository(db),
		activities: persistence.NewGormActivityRepository(db),
		events:     testutil.NewRecordingPublisher(),
	}
	f.owner = d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	f.manager = d.AddUser(t, "max@prairie.test", identity.RoleManager, nil)
	f.rep = d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, f.manager)
	f.other = d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)
	f.svc = NewDeliveryService(
		persistence.NewGormDeliveryRepository(db),
		f.units,
		f.customers,
		d.Users,
		d.Tenants,
		persistence.NewGormDealTransaction(db),
		f.events,
		zap.NewNop(),
	)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *dealFixture) as(u *identity.User) access.Caller {
	return access.Caller{TenantID: f.d.TenantID(), UserID: u.ID, Role: u.Role}
}

func (f *dealFixture) customerOf(t *testing.T, name string, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(f.d.TenantID(), name, uuid.NewString()+"@buyers.test", "", crm.SourceWalkIn)
	require.NoError(t, err)
	require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	require.NoError(t, c.MoveTo(crm.StageNegotiating, nil))
	c.ClearDomainEvents()
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}

// unit is an 8,680 landed trailer listed at 10,500.
func (f *dealFixture) unit(t *testing.T, stock string) *inventory.Unit {
	t.Helper()
	u, err := inventory.NewUnit(f.d.TenantID(), inventory.UnitSpec{StockNumber: stock, Year: 2025, Make: "Big Tex", Model: "14GN"},
		inventory.UnitCosts{Cost: dec("8000"), Freight: dec("450"), Prep: dec("230")})
	require.NoError(t, err)
	require.NoError(t, u.SetListPrice(dec("10500")))
	require.NoError(t, f.units.Save(context.Background(), u))
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestDeliveryService_ScheduleHoldsUnitAndWinsCustomer(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, "Dana Buyer", f.rep)
	u := f.unit(t, "BT-1")

	resp, err := f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{
		CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, f.rep.ID, resp.RepID)
	assert.True(t, resp.SalePrice.Equal(dec("10500")), "sale price defaults to list price")
	assert.True(t, resp.UnitCost.Equal(dec("8680")))
	assert.True(t, resp.GrossProfit.Equal(dec("1820")))
	assert.True(t, resp.CommissionPercent.Equal(dec("25")), "rate comes from dealership settings")
	assert.True(t, resp.MinimumCommission.Equal(dec("200")))
	assert.Empty(t, resp.Commissions)

	held, err := f.units.FindByID(ctx, f.d.TenantID(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnitStatusOnHold, held.Status)
	assert.Equal(t, c.ID, *held.HoldCustomer)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageWon, stored.Stage)

	acts, err := f.activities.ListByCustomer(ctx, f.d.TenantID(), c.ID, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, crm.ActivityDelivery, acts[0].Type)
	assert.Contains(t, acts[0].Body, "2025 Big Tex 14GN")

	assert.Contains(t, f.events.Types(), sales.EventTypeDeliveryScheduled)
	assert.Contains(t, f.events.Types(), crm.EventTypeCustomerStageChanged)
}

func TestDeliveryService_ScheduleRejectsDoubleBooking(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	first := f.customerOf(t, "First Buyer", f.rep)
	second := f.customerOf(t, "Second Buyer", f.rep)
	u := f.unit(t, "BT-2")

	_, err := f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: first.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	require.NoError(t, err)

	_, err = f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: second.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	assert.Equal(t, "UNIT_ALREADY_SCHEDULED", domainCode(t, err))

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageNegotiating, stored.Stage, "failed booking leaves the customer alone")
}

func TestDeliveryService_ScheduleVisibilityAndOverrides(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	theirs := f.customerOf(t, "Not Mine", f.other)
	mine := f.customerOf(t, "Mine", f.rep)
	u := f.unit(t, "BT-3")

	_, err := f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: theirs.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{
		CustomerID: mine.ID, UnitID: u.ID, ScheduledFor: fixedNow, CommissionPercent: decPtr("50"),
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.svc.Schedule(ctx, f.as(f.manager), ScheduleDeliveryRequest{
		CustomerID: mine.ID, UnitID: u.ID, ScheduledFor: fixedNow, RepID: &f.other.ID,
	})
	assert.Equal(t, "INVALID_ASSIGNEE", domainCode(t, err), "managers book only for their team")

	resp, err := f.svc.Schedule(ctx, f.as(f.manager), ScheduleDeliveryRequest{
		CustomerID: mine.ID, UnitID: u.ID, ScheduledFor: fixedNow,
		SalePrice: decPtr("11000"), Fees: dec("120"), CommissionPercent: decPtr("30"), MinimumCommission: decPtr("250"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.rep.ID, resp.RepID, "customer's rep earns by default")
	assert.True(t, resp.CommissionPercent.Equal(dec("30")))
	assert.True(t, resp.GrossProfit.Equal(dec("2200")))
}

func TestDeliveryService_CompleteSettlesCommission(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, "Dana Buyer", f.rep)
	u := f.unit(t, "BT-4")

	booked, err := f.svc.Schedule(ctx, f.as(f.manager), ScheduleDeliveryRequest{
		CustomerID: c.ID, UnitID: u.ID, SplitRepID: &f.other.ID, SalePrice: decPtr("10500"), ScheduledFor: fixedNow,
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.as(f.rep), booked.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	f.events.Reset()
	done, err := f.svc.Complete(ctx, f.as(f.manager), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", done.Status)
	require.Len(t, done.Commissions, 2)
	// 1820 gross at 25% is 455, split with the odd cent to the primary rep.
	assert.True(t, done.TotalCommission.Equal(dec("455")), done.TotalCommission.String())
	assert.Equal(t, f.rep.ID, done.Commissions[0].RepID)
	assert.True(t, done.Commissions[0].Amount.Equal(dec("227.50")))
	assert.True(t, done.Commissions[1].Amount.Equal(dec("227.50")))

	sold, err := f.units.FindByID(ctx, f.d.TenantID(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnitStatusSold, sold.Status)
	assert.Equal(t, c.ID, *sold.SoldTo)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageDelivered, stored.Stage)

	assert.Contains(t, f.events.Types(), sales.EventTypeDeliveryCompleted)

	_, err = f.svc.Complete(ctx, f.as(f.manager), booked.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDeliveryService_CompleteReopensLostCustomer(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, "Dana Buyer", f.rep)
	u := f.unit(t, "BT-6")
	booked, err := f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	require.NoError(t, err)

	lost, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	require.NoError(t, lost.MoveTo(crm.StageLost, nil))
	require.NoError(t, f.customers.Save(ctx, lost))

	done, err := f.svc.Complete(ctx, f.as(f.manager), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivered", done.Status)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageDelivered, stored.Stage)

	sold, err := f.units.FindByID(ctx, f.d.TenantID(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnitStatusSold, sold.Status)
}

func TestDeliveryService_ScheduleWinsBackLostCustomer(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, "Came Back", f.rep)
	lost, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	require.NoError(t, lost.MoveTo(crm.StageLost, nil))
	require.NoError(t, f.customers.Save(ctx, lost))
	u := f.unit(t, "BT-7")

	_, err = f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	require.NoError(t, err)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageWon, stored.Stage)
}

func TestDeliveryService_CancelReleasesHold(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, "Dana Buyer", f.rep)
	u := f.unit(t, "BT-5")
	booked, err := f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(ctx, f.as(f.rep), booked.ID, RescheduleDeliveryRequest{ScheduledFor: fixedNow.AddDate(0, 0, 7)})
	require.NoError(t, err)
	assert.True(t, moved.ScheduledFor.Equal(fixedNow.AddDate(0, 0, 7)))

	cancelled, err := f.svc.Cancel(ctx, f.as(f.manager), booked.ID, CancelDeliveryRequest{Reason: "Financing fell through"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "Financing fell through", cancelled.Notes)

	unit, err := f.units.FindByID(ctx, f.d.TenantID(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.UnitStatusAvailable, unit.Status)

	// The unit can be booked again once the old delivery is cancelled.
	_, err = f.svc.Schedule(ctx, f.as(f.rep), ScheduleDeliveryRequest{CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow})
	require.NoError(t, err)
}

func TestDeliveryService_ListAndReportAreScoped(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()

	complete := func(rep *identity.User, stock string) {
		c := f.customerOf(t, "Buyer "+stock, rep)
		u := f.unit(t, stock)
		booked, err := f.svc.Schedule(ctx, f.as(f.owner), ScheduleDeliveryRequest{CustomerID: c.ID, UnitID: u.ID, ScheduledFor: fixedNow})
		require.NoError(t, err)
		_, err = f.svc.Complete(ctx, f.as(f.owner), booked.ID)
		require.NoError(t, err)
	}
	complete(f.rep, "R-1")
	complete(f.rep, "R-2")
	complete(f.other, "O-1")

	mine, err := f.svc.List(ctx, f.as(f.rep), DeliveryListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	all, err := f.svc.List(ctx, f.as(f.owner), DeliveryListFilter{Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	_, err = f.svc.Get(ctx, f.as(f.other), mine.Deliveries[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	report, err := f.svc.CommissionReport(ctx, f.as(f.manager), CommissionReportFilter{})
	require.NoError(t, err)
	require.Len(t, report.Reps, 1, "manager sees only their team")
	assert.Equal(t, f.rep.ID, report.Reps[0].RepID)
	assert.Equal(t, "sam", report.Reps[0].RepName)
	assert.Equal(t, int64(2), report.Reps[0].Deals)
	assert.True(t, report.TotalCommission.Equal(dec("910")), report.TotalCommission.String())

	owner, err := f.svc.CommissionReport(ctx, f.as(f.owner), CommissionReportFilter{})
	require.NoError(t, err)
	assert.Len(t, owner.Reps, 2)
	assert.Equal(t, int64(3), owner.TotalDeals)

	lastMonth, err := f.svc.CommissionReport(ctx, f.as(f.owner), CommissionReportFilter{
		From: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, lastMonth.Reps)
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2026, 2, 17, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), got)
}
