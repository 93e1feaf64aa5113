package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dealership seeds a manager with two reps, a rep on another team and an
// owner, each with one customer, plus one customer the manager owns
// directly without a team rep.
type dealership struct {
	tenantID                uuid.UUID
	owner, manager          *identity.User
	repA, repB, outsider    *identity.User
	custA, custB, custOther *crm.Customer
	custManaged             *crm.Customer
}

func seedDealership(t *testing.T, users *GormUserRepository, customers *GormCustomerRepository) dealership {
	d := dealership{tenantID: uuid.New()}
	d.owner = saveUser(t, users, d.tenantID, "owner@lot.com", identity.RoleOwner, nil)
	d.manager = saveUser(t, users, d.tenantID, "mgr@lot.com", identity.RoleManager, nil)
	otherMgr := saveUser(t, users, d.tenantID, "mgr2@lot.com", identity.RoleManager, nil)
	d.repA = saveUser(t, users, d.tenantID, "a@lot.com", identity.RoleSalesperson, d.manager)
	d.repB = saveUser(t, users, d.tenantID, "b@lot.com", identity.RoleSalesperson, d.manager)
	d.outsider = saveUser(t, users, d.tenantID, "c@lot.com", identity.RoleSalesperson, otherMgr)

	d.custA = saveCustomer(t, customers, d.tenantID, "Alice Smith", "alice@example.com", "(555) 123-4567", d.repA)
	d.custB = saveCustomer(t, customers, d.tenantID, "Bob Smith", "bob@example.com", "", d.repB)
	d.custOther = saveCustomer(t, customers, d.tenantID, "Carol Smith", "carol@example.com", "555-987-6543", d.outsider)

	// Assigned to the outsider but owned by the manager.
	d.custManaged = saveCustomer(t, customers, d.tenantID, "Dan Jones", "dan@example.com", "", nil)
	mgr := d.manager.ID
	require.NoError(t, d.custManaged.AssignTo(d.outsider.ID, &mgr, nil))
	require.NoError(t, customers.Save(context.Background(), d.custManaged))
	return d
}

func customerIDs(cs []crm.Customer) []uuid.UUID {
	ids := make([]uuid.UUID, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func TestGormCustomerRepository_ListVisibility(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, users, repo)

	list := func(v crm.Viewer, search string) []uuid.UUID {
		f := shared.DefaultFilter()
		f.Search = search
		got, total, err := repo.List(ctx, d.tenantID, crm.CustomerQuery{Visibility: crm.VisibilityFor(v), Filter: f})
		require.NoError(t, err)
		assert.Equal(t, int64(len(got)), total)
		return customerIDs(got)
	}

	t.Run("salesperson sees only own customers", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.repA.ID, Role: identity.RoleSalesperson}, "")
		assert.ElementsMatch(t, []uuid.UUID{d.custA.ID}, got)
	})

	t.Run("manager sees team and managed customers", func(t *testing.T) {
		v := crm.Viewer{TenantID: d.tenantID, UserID: d.manager.ID, Role: identity.RoleManager,
			TeamIDs: []uuid.UUID{d.repA.ID, d.repB.ID}}
		got := list(v, "")
		assert.ElementsMatch(t, []uuid.UUID{d.custA.ID, d.custB.ID, d.custManaged.ID}, got)
	})

	t.Run("owner sees everything", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.owner.ID, Role: identity.RoleOwner}, "")
		assert.Len(t, got, 4)
	})

	t.Run("unknown role sees nothing", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.owner.ID, Role: identity.Role("intern")}, "")
		assert.Empty(t, got)
	})

	t.Run("search never widens visibility", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.repA.ID, Role: identity.RoleSalesperson}, "smith")
		assert.ElementsMatch(t, []uuid.UUID{d.custA.ID}, got)

		got = list(crm.Viewer{TenantID: d.tenantID, UserID: d.repA.ID, Role: identity.RoleSalesperson}, "carol")
		assert.Empty(t, got)
	})

	t.Run("manager search stays within team OR managed", func(t *testing.T) {
		v := crm.Viewer{TenantID: d.tenantID, UserID: d.manager.ID, Role: identity.RoleManager,
			TeamIDs: []uuid.UUID{d.repA.ID, d.repB.ID}}
		assert.ElementsMatch(t, []uuid.UUID{d.custA.ID, d.custB.ID}, list(v, "smith"))
		assert.ElementsMatch(t, []uuid.UUID{d.custManaged.ID}, list(v, "dan"))
	})

	t.Run("search matches phone digits", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.owner.ID, Role: identity.RoleOwner}, "987-65")
		assert.ElementsMatch(t, []uuid.UUID{d.custOther.ID}, got)
	})

	t.Run("LIKE metacharacters are literal", func(t *testing.T) {
		got := list(crm.Viewer{TenantID: d.tenantID, UserID: d.owner.ID, Role: identity.RoleOwner}, "%")
		assert.Empty(t, got)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		got, _, err := repo.List(ctx, uuid.New(), crm.CustomerQuery{Visibility: crm.Visibility{All: true}, Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGormCustomerRepository_ListFiltersAndPaging(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	require.NoError(t, d.custB.MoveTo(crm.StageQualified, nil))
	require.NoError(t, repo.Save(ctx, d.custB))

	all := crm.Visibility{All: true}
	got, total, err := repo.List(ctx, d.tenantID, crm.CustomerQuery{Visibility: all, Filter: shared.DefaultFilter(), Stage: crm.StageQualified})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, d.custB.ID, got[0].ID)

	rep := d.repA.ID
	got, _, err = repo.List(ctx, d.tenantID, crm.CustomerQuery{Visibility: all, Filter: shared.DefaultFilter(), AssignedToID: &rep})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{d.custA.ID}, customerIDs(got))

	f := shared.DefaultFilter()
	f.PageSize = 3
	f.Page = 2
	f.OrderBy = "name"
	f.OrderDir = "asc"
	got, total, err = repo.List(ctx, d.tenantID, crm.CustomerQuery{Visibility: all, Filter: f})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, got, 1)
	assert.Equal(t, "Dan Jones", got[0].Name)

	f.OrderBy = "password; DROP TABLE customers"
	_, _, err = repo.List(ctx, d.tenantID, crm.CustomerQuery{Visibility: all, Filter: f})
	assert.NoError(t, err, "unknown sort fields fall back to created_at")

	everything, err := repo.ListAll(ctx, d.tenantID, crm.CustomerQuery{Visibility: all, Filter: f})
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}

func TestGormCustomerRepository_FindDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	found, err := repo.FindDuplicate(ctx, d.tenantID, crm.NewDuplicateKey("ALICE@example.com ", ""), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, d.custA.ID, found.ID)

	found, err = repo.FindDuplicate(ctx, d.tenantID, crm.NewDuplicateKey("", "+1 555 123 4567"), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, d.custA.ID, found.ID)

	found, err = repo.FindDuplicate(ctx, d.tenantID, crm.NewDuplicateKey("new@example.com", "555-987-6543"), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, d.custOther.ID, found.ID)

	_, err = repo.FindDuplicate(ctx, d.tenantID, crm.NewDuplicateKey("nobody@example.com", ""), uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindDuplicate(ctx, uuid.New(), crm.NewDuplicateKey("alice@example.com", ""), uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindDuplicate(ctx, d.tenantID, crm.DuplicateKey{}, uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomerRepository_FindDuplicateExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	// Alice keeps her own email but takes Carol's phone.
	key := crm.NewDuplicateKey(d.custA.Email, "555-987-6543")
	found, err := repo.FindDuplicate(ctx, d.tenantID, key, d.custA.ID)
	require.NoError(t, err)
	assert.Equal(t, d.custOther.ID, found.ID)

	_, err = repo.FindDuplicate(ctx, d.tenantID, crm.NewDuplicateKey(d.custA.Email, d.custA.Phone), d.custA.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormCustomerRepository_UniqueContact(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	twin, err := crm.NewCustomer(d.tenantID, "Alice Again", "alice@example.com", "", crm.SourceWalkIn)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, twin), shared.ErrAlreadyExists)

	phoneTwin, err := crm.NewCustomer(d.tenantID, "Phone Twin", "", "+1 (555) 123-4567", crm.SourceWalkIn)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, phoneTwin), shared.ErrAlreadyExists)

	elsewhere, err := crm.NewCustomer(uuid.New(), "Alice Elsewhere", "alice@example.com", "555-123-4567", crm.SourceWalkIn)
	require.NoError(t, err)
	assert.NoError(t, repo.Save(ctx, elsewhere), "contacts are unique per tenant only")

	noContactA, err := crm.NewCustomer(d.tenantID, "Email Only", "only@example.com", "", crm.SourceWalkIn)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, noContactA))
	noContactB, err := crm.NewCustomer(d.tenantID, "Other Email", "other@example.com", "", crm.SourceWalkIn)
	require.NoError(t, err)
	assert.NoError(t, repo.Save(ctx, noContactB), "blank phones never collide")

	a, err := repo.FindByID(ctx, d.tenantID, d.custA.ID)
	require.NoError(t, err)
	require.NoError(t, a.UpdateContact(a.Name, a.Email, "555-987-6543"))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, a), shared.ErrAlreadyExists)
}

func TestGormCustomerRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	first, err := repo.FindByID(ctx, d.tenantID, d.custA.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, d.tenantID, d.custA.ID)
	require.NoError(t, err)

	first.SetNotes("called twice")
	require.NoError(t, repo.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.SetNotes("stale write")
	err = repo.SaveWithLock(ctx, second)
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

	reloaded, err := repo.FindByID(ctx, d.tenantID, d.custA.ID)
	require.NoError(t, err)
	assert.Equal(t, "called twice", reloaded.Notes)
	assert.Equal(t, 2, reloaded.Version)
}

func TestGormCustomerRepository_CountsAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	activities := NewGormActivityRepository(db)
	ctx := context.Background()
	d := seedDealership(t, NewGormUserRepository(db), repo)

	require.NoError(t, d.custA.MoveTo(crm.StageContacted, nil))
	require.NoError(t, repo.Save(ctx, d.custA))

	counts, err := repo.CountByStage(ctx, d.tenantID, crm.Visibility{All: true})
	require.NoError(t, err)
	byStage := map[crm.Stage]int64{}
	for _, c := range counts {
		byStage[c.Stage] = c.Count
	}
	assert.Equal(t, int64(3), byStage[crm.StageNew])
	assert.Equal(t, int64(1), byStage[crm.StageContacted])

	repVis := crm.VisibilityFor(crm.Viewer{UserID: d.repA.ID, Role: identity.RoleSalesperson})
	n, err := repo.CountCreatedSince(ctx, d.tenantID, repVis, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountByTemperature(ctx, d.tenantID, crm.Visibility{All: true}, d.custA.Temperature)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	a, err := crm.NewActivity(d.custA, crm.ActivityNote, "left voicemail", &d.repA.ID)
	require.NoError(t, err)
	require.NoError(t, activities.Append(ctx, a))
	list, err := activities.ListByCustomer(ctx, d.tenantID, d.custA.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "left voicemail", list[0].Body)

	require.NoError(t, repo.Delete(ctx, d.tenantID, d.custA.ID))
	_, err = repo.FindByID(ctx, d.tenantID, d.custA.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	list, err = activities.ListByCustomer(ctx, d.tenantID, d.custA.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, repo.Delete(ctx, d.tenantID, d.custA.ID), shared.ErrNotFound)
}

func TestGormCustomerRepository_RoundTripsInterestAndTags(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	c, err := crm.NewCustomer(tenantID, "Eve", "eve@example.com", "", crm.SourceReferral)
	require.NoError(t, err)
	c.SetTags([]string{"Hot", "dump", "hot"})
	require.NoError(t, c.SetInterest(crm.Interest{TrailerType: "Dump", StockNumber: "d-100", Payment: crm.PaymentFinance}))
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.FindByID(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hot", "dump"}, got.Tags)
	assert.Equal(t, "D-100", got.Interest.StockNumber)
	assert.Equal(t, crm.PaymentFinance, got.Interest.Payment)
	assert.Equal(t, c.Score, got.Score)
}
