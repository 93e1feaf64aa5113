package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/remotive/saleshub/internal/application/access"
	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/remotive/saleshub/internal/domain/identity"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/domain/shared"
	"github.com/remotive/saleshub/internal/infrastructure/notify"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type messageFixture struct {
	svc        *MessageService
	d          *testutil.Dealership
	customers  *persistence.GormCustomerRepository
	activities *persistence.GormActivityRepository
	sender     *notify.MemorySender
	events     *testutil.RecordingPublisher
	owner      *identity.User
	rep        *identity.User
	other      *identity.User
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	d := testutil.NewDealership(t, db, "PRAIRIE")
	renderer, err := messaging.NewRenderer()
	require.NoError(t, err)
	f := &messageFixture{
		d:          d,
		customers:  persistence.NewGormCustomerRepository(db),
		activities: persistence.NewGormActivityRepository(db),
		sender:     notify.NewMemorySender(),
		events:     testutil.NewRecordingPublisher(),
	}
	f.owner = d.AddUser(t, "olive@prairie.test", identity.RoleOwner, nil)
	f.rep = d.AddUser(t, "sam@prairie.test", identity.RoleSalesperson, nil)
	require.NoError(t, f.rep.SetPhone("555-300-1000"))
	require.NoError(t, d.Users.Save(context.Background(), f.rep))
	f.other = d.AddUser(t, "ola@prairie.test", identity.RoleSalesperson, nil)
	f.svc = NewMessageService(
		persistence.NewGormMessageRepository(db),
		f.customers, f.activities, d.Users, d.Tenants,
		renderer, f.sender, f.events, zap.NewNop(),
	)
	return f
}

func (f *messageFixture) as(u *identity.User) access.Caller {
	return access.Caller{TenantID: f.d.TenantID(), UserID: u.ID, Role: u.Role}
}

func (f *messageFixture) customerOf(t *testing.T, rep *identity.User) *crm.Customer {
	t.Helper()
	c, err := crm.NewCustomer(f.d.TenantID(), "Dana Buyer", "dana@buyers.test", "555-201-0000", crm.SourceWebsite)
	require.NoError(t, err)
	require.NoError(t, c.AssignTo(rep.ID, rep.ManagerID, nil))
	c.ClearDomainEvents()
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}

func TestMessageService_SendTemplateMarksContacted(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, f.rep)

	resp, err := f.svc.Send(ctx, f.as(f.rep), c.ID, SendMessageRequest{Channel: "sms", Template: messaging.TemplateWelcome})
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Status)
	assert.Equal(t, "555-201-0000", resp.To)
	assert.Contains(t, resp.Body, "Hi Dana, thanks for reaching out to PRAIRIE Trailers!")
	assert.Contains(t, resp.Body, "555-300-1000")
	assert.Equal(t, "mem-1", resp.ProviderRef)
	require.Len(t, f.sender.Sent(), 1)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageContacted, stored.Stage)
	assert.NotNil(t, stored.LastContactedAt)

	acts, err := f.activities.ListByCustomer(ctx, f.d.TenantID(), c.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, acts)
	assert.Equal(t, crm.ActivitySMS, acts[0].Type)

	assert.Len(t, f.events.OfType(messaging.EventTypeMessageSent), 1)
	assert.Len(t, f.events.OfType(crm.EventTypeCustomerStageChanged), 1)

	log, err := f.svc.ListByCustomer(ctx, f.as(f.rep), c.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, resp.ID, log[0].ID)
}

func TestMessageService_SendEmailNeedsSubject(t *testing.T) {
	f := newMessageFixture(t)
	c := f.customerOf(t, f.rep)

	_, err := f.svc.Send(context.Background(), f.as(f.rep), c.ID, SendMessageRequest{Channel: "email", Body: "Hello"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_MESSAGE", de.Code)

	resp, err := f.svc.Send(context.Background(), f.as(f.rep), c.ID, SendMessageRequest{Channel: "email", Subject: "Your trailer", Body: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "dana@buyers.test", resp.To)
}

func TestMessageService_SendFailureIsLogged(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	c := f.customerOf(t, f.rep)
	f.sender.FailWith(errors.New("carrier down"))

	_, err := f.svc.Send(ctx, f.as(f.rep), c.ID, SendMessageRequest{Channel: "sms", Body: "Hi"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "SEND_FAILED", de.Code)

	log, err := f.svc.ListByCustomer(ctx, f.as(f.rep), c.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "failed", log[0].Status)
	assert.Equal(t, "carrier down", log[0].Error)

	stored, err := f.customers.FindByID(ctx, f.d.TenantID(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, crm.StageNew, stored.Stage, "failed sends do not count as contact")
}

func TestMessageService_HiddenCustomer(t *testing.T) {
	f := newMessageFixture(t)
	c := f.customerOf(t, f.other)
	_, err := f.svc.Send(context.Background(), f.as(f.rep), c.ID, SendMessageRequest{Channel: "sms", Body: "Hi"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.ListByCustomer(context.Background(), f.as(f.rep), c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.sender.Sent())
}

func TestLeadAssignedHandler(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	h := NewLeadAssignedHandler(f.svc, zap.NewNop())
	assert.Equal(t, []string{crm.EventTypeCustomerAssigned}, h.EventTypes())

	c, err := crm.NewCustomer(f.d.TenantID(), "Dana Buyer", "", "555-201-0000", crm.SourceWebsite)
	require.NoError(t, err)
	require.NoError(t, c.AssignTo(f.rep.ID, nil, &f.owner.ID))
	require.NoError(t, f.customers.Save(ctx, c))
	events := c.GetDomainEvents()

	for _, ev := range events {
		if ev.EventType() == crm.EventTypeCustomerAssigned {
			require.NoError(t, h.Handle(ctx, ev))
		}
	}
	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, messaging.ChannelSMS, sent[0].Channel)
	assert.Equal(t, "555-300-1000", sent[0].To)
	assert.Equal(t, messaging.TemplateLeadAssigned, sent[0].Template)
	assert.Equal(t, "Hi sam, you have a new website lead: Dana Buyer 555-201-0000.", sent[0].Body)
	assert.Equal(t, f.rep.ID, *sent[0].RecipientID)
}

func TestLeadAssignedHandler_SkipsSelfAssignment(t *testing.T) {
	f := newMessageFixture(t)
	h := NewLeadAssignedHandler(f.svc, zap.NewNop())
	c := f.customerOf(t, f.rep)
	self := f.rep.ID
	ev := crm.NewCustomerAssignedEvent(c, nil, &self)
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Empty(t, f.sender.Sent())
}
