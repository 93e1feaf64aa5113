package crm

import (
	"context"
	"testing"

	"github.com/remotive/saleshub/internal/domain/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTimelineHandler(t *testing.T) {
	f := newCRMFixture(t)
	ctx := context.Background()
	h := NewTimelineHandler(f.activities, f.d.Users, zap.NewNop())
	assert.ElementsMatch(t, []string{crm.EventTypeCustomerStageChanged, crm.EventTypeCustomerAssigned}, h.EventTypes())

	c := f.seed(t, "Tia", "tia@example.com", "", f.rep)
	require.NoError(t, c.AssignTo(f.other.ID, nil, &f.owner.ID))
	require.NoError(t, c.MoveTo(crm.StageQualified, &f.other.ID))
	for _, ev := range c.GetDomainEvents() {
		require.NoError(t, h.Handle(ctx, ev))
	}

	entries, err := f.activities.ListByCustomer(ctx, f.d.TenantID(), c.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	bodies := map[crm.ActivityType]string{}
	for _, e := range entries {
		bodies[e.Type] = e.Body
	}
	assert.Equal(t, "Assigned to ola", bodies[crm.ActivityAssignment])
	assert.Equal(t, "Stage changed from new to qualified", bodies[crm.ActivityStageChange])
}
