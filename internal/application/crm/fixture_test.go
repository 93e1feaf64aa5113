package crm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/cache"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// crmFixture is one dealership with an owner, a manager with one rep, and
// a second rep outside that team.
type crmFixture struct {
	d          *testutil.Dealership
	customers  *persistence.GormCustomerRepository
	activities *persistence.GormActivityRepository
	events     *testutil.RecordingPublisher
	svc        *CustomerService
	inbound    *InboundService
	metrics    *testutil.MetricsRecorder

	owner   *identity.User
	manager *identity.User
	rep     *identity.User
	other   *identity.User
}

func newCRMFixture(t *testing.T) *crmFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	f := &crmFixture{
		d:          d,
		customers:  persistence.NewGormCustomerRepository(db),
		activities: persistence.NewGormActivityRepository(db),
		events:     testutil.NewRecordingPublisher(),
		metrics:    testutil.NewMetricsRecorder(t),
	}
	f.owner = d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	f.manager = d.AddUser(t, "max@prairie.test", identity.RoleManager, nil)
	f.rep = d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, f.manager)
	f.other = d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)

	assigner := NewAssigner(d.Users, cache.NewInMemoryRoundRobin(), zap.NewNop())
	f.svc = NewCustomerService(f.customers, f.activities, d.Users, assigner, f.events, 100, zap.NewNop())
	f.inbound = NewInboundService(d.Tenants, f.customers, f.activities, d.Users, assigner, f.events, zap.NewNop())
	assigner.SetSalesMetrics(f.metrics.Metrics)
	f.svc.SetSalesMetrics(f.metrics.Metrics)
	f.inbound.SetSalesMetrics(f.metrics.Metrics)
	return f
}

func (f *crmFixture) as(u *identity.User) access.Caller {
	return access.Caller{TenantID: f.d.TenantID(), UserID: u.ID, Role: u.Role}
}

// seed stores a customer owned by rep with manager set from the rep.
func (f *crmFixture) seed(t *testing.T, name, email, phone string, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(f.d.TenantID(), name, email, phone, crm.SourceWebsite)
	require.NoError(t, err)
	require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	c.ClearDomainEvents()
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}

// lateLookup misses the first duplicate lookup, as if a concurrent request
// stored the matching customer right after the check ran.
type lateLookup struct {
	crm.CustomerRepository
	missed bool
}

func (r *lateLookup) FindDuplicate(ctx context.Context, tenantID uuid.UUID, key crm.DuplicateKey, excludeID uuid.UUID) (*crm.Customer, error) {
	if !r.missed {
		r.missed = true
		return nil, shared.ErrNotFound
	}
	return r.CustomerRepository.FindDuplicate(ctx, tenantID, key, excludeID)
}
