package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(t *testing.T, tenantID uuid.UUID, name, email, phone string, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(tenantID, name, email, phone, crm.SourceWebsite)
	require.NoError(t, err)
	if rep != nil {
		require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	}
	c.ClearDomainEvents()
	return c
}

func TestCustomerRepository_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormCustomerRepository(tdb.DB)

	lot := testutil.NewDealership(t, tdb.DB, "PGCUST"+uuid.NewString()[:6])
	other := testutil.NewDealership(t, tdb.DB, "PGOTHER"+uuid.NewString()[:6])
	manager := lot.AddUser(t, "mgr@pg.test", identity.RoleManager, nil)
	rep := lot.AddUser(t, "rep@pg.test", identity.RoleSalesperson, manager)
	otherRep := other.AddUser(t, "rep@pg.test", identity.RoleSalesperson, nil)

	alice := newCustomer(t, lot.TenantID(), "Alice O'Brien", "Alice@Example.com", "(555) 201-0001", rep)
	bob := newCustomer(t, lot.TenantID(), "Bob 100% Haul", "bob@example.com", "", nil)
	twin := newCustomer(t, other.TenantID(), "Alice Elsewhere", "alice@example.com", "555-201-0001", otherRep)
	for _, c := range []*crm.Customer{alice, bob, twin} {
		require.NoError(t, repo.Save(ctx, c))
	}

	t.Run("find by id is tenant scoped", func(t *testing.T) {
		found, err := repo.FindByID(ctx, lot.TenantID(), alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice O'Brien", found.Name)
		assert.Equal(t, rep.ID, *found.AssignedToID)

		_, err = repo.FindByID(ctx, other.TenantID(), alice.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate lookup normalizes and stays in tenant", func(t *testing.T) {
		found, err := repo.FindDuplicate(ctx, lot.TenantID(), crm.NewDuplicateKey("ALICE@example.COM", ""), uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)

		found, err = repo.FindDuplicate(ctx, lot.TenantID(), crm.NewDuplicateKey("", "+1 555 201 0001"), uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)

		found, err = repo.FindDuplicate(ctx, other.TenantID(), crm.NewDuplicateKey("alice@example.com", ""), uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, twin.ID, found.ID)

		_, err = repo.FindDuplicate(ctx, lot.TenantID(), crm.NewDuplicateKey("nobody@example.com", ""), uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("search escapes LIKE metacharacters", func(t *testing.T) {
		all := crm.Visibility{All: true}
		got, total, err := repo.List(ctx, lot.TenantID(), crm.CustomerQuery{
			Visibility: all,
			Filter:     shared.Filter{Page: 1, PageSize: 20, Search: "100%"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, bob.ID, got[0].ID)

		got, _, err = repo.List(ctx, lot.TenantID(), crm.CustomerQuery{
			Visibility: all,
			Filter:     shared.Filter{Page: 1, PageSize: 20, Search: "201-0001"},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alice.ID, got[0].ID)
	})

	t.Run("visibility limits a rep to their own leads", func(t *testing.T) {
		got, total, err := repo.List(ctx, lot.TenantID(), crm.CustomerQuery{
			Visibility: crm.Visibility{AssignedTo: []uuid.UUID{rep.ID}},
			Filter:     shared.Filter{Page: 1, PageSize: 20},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, alice.ID, got[0].ID)

		_, total, err = repo.List(ctx, lot.TenantID(), crm.CustomerQuery{
			Filter: shared.Filter{Page: 1, PageSize: 20},
		})
		require.NoError(t, err)
		assert.Zero(t, total, "an empty visibility matches nothing")
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		first, err := repo.FindByID(ctx, lot.TenantID(), bob.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, lot.TenantID(), bob.ID)
		require.NoError(t, err)

		first.SetNotes("called back")
		require.NoError(t, repo.SaveWithLock(ctx, first))

		second.SetNotes("no answer")
		assert.ErrorIs(t, repo.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)

		stored, err := repo.FindByID(ctx, lot.TenantID(), bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "called back", stored.Notes)
	})

	t.Run("delete removes the timeline", func(t *testing.T) {
		activities := persistence.NewGormActivityRepository(tdb.DB)
		act, err := crm.NewActivity(alice, crm.ActivityNote, "first call", &rep.ID)
		require.NoError(t, err)
		require.NoError(t, activities.Append(ctx, act))

		require.NoError(t, repo.Delete(ctx, lot.TenantID(), alice.ID))
		_, err = repo.FindByID(ctx, lot.TenantID(), alice.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, lot.TenantID(), alice.ID), shared.ErrNotFound)
	})
}

func TestCustomerRepository_PostgresUniqueContacts(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormCustomerRepository(tdb.DB)
	lot := testutil.NewDealership(t, tdb.DB, "PGUNIQ"+uuid.NewString()[:6])

	const racers = 6
	leads := make([]*crm.Customer, racers)
	for i := range leads {
		leads[i] = newCustomer(t, lot.TenantID(), fmt.Sprintf("Feed Lead %d", i), "feed@example.com", "", nil)
	}

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := range leads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Save(ctx, leads[i])
		}(i)
	}
	wg.Wait()

	saved := 0
	for _, err := range errs {
		if err == nil {
			saved++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	}
	assert.Equal(t, 1, saved, "only one customer per email survives concurrent inserts")

	_, total, err := repo.List(ctx, lot.TenantID(), crm.CustomerQuery{
		Visibility: crm.Visibility{All: true},
		Filter:     shared.Filter{Page: 1, PageSize: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	t.Run("phone collides across formats", func(t *testing.T) {
		first := newCustomer(t, lot.TenantID(), "Caller", "", "(555) 201-7000", nil)
		require.NoError(t, repo.Save(ctx, first))
		second := newCustomer(t, lot.TenantID(), "Caller Again", "", "+1 555 201 7000", nil)
		assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrAlreadyExists)
	})

	t.Run("blank contacts never collide", func(t *testing.T) {
		a := newCustomer(t, lot.TenantID(), "Phone Only A", "", "555-201-7100", nil)
		b := newCustomer(t, lot.TenantID(), "Phone Only B", "", "555-201-7200", nil)
		require.NoError(t, repo.Save(ctx, a))
		assert.NoError(t, repo.Save(ctx, b))
	})
}
