package onboarding

import (
	"context"
	"testing"

	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/domain/onboarding"
	"github.com/remotive/saleshub/internal/domain/quote"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type onboardingFixture struct {
	svc     *ChecklistService
	handler *MilestoneHandler
	d       *testutil.Dealership
	owner   *identity.User
	manager *identity.User
	rep     *identity.User
	other   *identity.User
}

func newOnboardingFixture(t *testing.T) *onboardingFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	f := &onboardingFixture{d: d}
	f.owner = d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	f.manager = d.AddUser(t, "max@prairie.test", identity.RoleManager, nil)
	f.rep = d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, f.manager)
	f.other = d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)
	f.svc = NewChecklistService(persistence.NewGormChecklistRepository(db), d.Users, zap.NewNop())
	f.handler = NewMilestoneHandler(f.svc, zap.NewNop())
	return f
}

func (f *onboardingFixture) as(u *identity.User) access.Caller {
	return access.Caller{TenantID: f.d.TenantID(), UserID: u.ID, Role: u.Role}
}

func TestChecklistService_MineAndComplete(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	mine, err := f.svc.Mine(ctx, f.as(f.rep))
	require.NoError(t, err)
	assert.Equal(t, 0, mine.Progress)
	assert.Equal(t, "profile", mine.NextStep)
	require.Len(t, mine.Steps, 6)
	assert.Equal(t, "Complete your profile", mine.Steps[0].Title)

	done, err := f.svc.CompleteStep(ctx, f.as(f.rep), "profile")
	require.NoError(t, err)
	assert.Equal(t, 16, done.Progress)
	assert.Equal(t, "password", done.NextStep)
	assert.True(t, done.Steps[0].Done)

	again, err := f.svc.CompleteStep(ctx, f.as(f.rep), "profile")
	require.NoError(t, err)
	assert.Equal(t, done.Steps[0].CompletedAt.Unix(), again.Steps[0].CompletedAt.Unix(), "first completion time is kept")

	_, err = f.svc.CompleteStep(ctx, f.as(f.rep), "skydiving")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STEP", de.Code)
}

func TestChecklistService_TeamProgress(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()
	for _, step := range []string{"profile", "password", "crm_tour"} {
		_, err := f.svc.CompleteStep(ctx, f.as(f.rep), step)
		require.NoError(t, err)
	}

	team, err := f.svc.TeamProgress(ctx, f.as(f.manager))
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, f.rep.ID, team[0].UserID)
	assert.Equal(t, 50, team[0].Progress)
	assert.Equal(t, "first_lead", team[0].NextStep)

	all, err := f.svc.TeamProgress(ctx, f.as(f.owner))
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, f.rep.ID, all[len(all)-1].UserID, "least progress first")

	_, err = f.svc.TeamProgress(ctx, f.as(f.rep))
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestMilestoneHandler(t *testing.T) {
	f := newOnboardingFixture(t)
	ctx := context.Background()

	newbie, err := identity.NewUser(f.d.TenantID(), "new@prairie.test", "Newbie", testutil.TestPassword, identity.RoleSalesperson)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, identity.NewUserCreatedEvent(newbie)))

	c, err := crm.NewCustomer(f.d.TenantID(), "Dana Buyer", "dana@buyers.test", "", crm.SourceWebsite)
	require.NoError(t, err)
	c.AssignedToID = &newbie.ID
	require.NoError(t, f.handler.Handle(ctx, crm.NewCustomerAssignedEvent(c, nil, nil)))

	msg, err := messaging.NewOutbound(f.d.TenantID(), messaging.ChannelSMS, "5552010000", "", "Hi")
	require.NoError(t, err)
	msg.SenderID = &newbie.ID
	require.NoError(t, f.handler.Handle(ctx, messaging.NewMessageSentEvent(msg)))

	q, err := quote.NewQuote(f.d.TenantID(), "Q-20261017-0001", c.ID, newbie.ID, 0)
	require.NoError(t, err)
	require.NoError(t, f.handler.Handle(ctx, quote.NewQuoteSentEvent(q)))

	list, err := f.svc.Mine(ctx, access.Caller{TenantID: f.d.TenantID(), UserID: newbie.ID, Role: newbie.Role})
	require.NoError(t, err)
	assert.Equal(t, 50, list.Progress)
	for _, s := range list.Steps {
		auto := s.Step == string(onboarding.StepFirstLead) || s.Step == string(onboarding.StepFirstMessage) || s.Step == string(onboarding.StepFirstQuote)
		assert.Equal(t, auto, s.Done, s.Step)
	}

	// System messages without a sender are ignored.
	anon, err := messaging.NewOutbound(f.d.TenantID(), messaging.ChannelSMS, "5552010000", "", "Hi")
	require.NoError(t, err)
	assert.NoError(t, f.handler.Handle(ctx, messaging.NewMessageSentEvent(anon)))
}
