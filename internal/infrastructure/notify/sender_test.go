package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newMessage(t *testing.T) *messaging.Message {
	t.Helper()
	m, err := messaging.NewOutbound(uuid.New(), messaging.ChannelSMS, "5551234567", "", "Your trailer is ready")
	require.NoError(t, err)
	return m
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	ref, err := s.Send(context.Background(), newMessage(t))
	require.NoError(t, err)
	assert.Contains(t, ref, "log-")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Outbound message", entry.Message)
	assert.Equal(t, "5551234567", entry.ContextMap()["to"])
	assert.Equal(t, ref, entry.ContextMap()["provider_ref"])
}

func TestMemorySender(t *testing.T) {
	s := NewMemorySender()
	ref, err := s.Send(context.Background(), newMessage(t))
	require.NoError(t, err)
	assert.Equal(t, "mem-1", ref)
	assert.Len(t, s.Sent(), 1)

	s.FailWith(errors.New("carrier down"))
	_, err = s.Send(context.Background(), newMessage(t))
	assert.EqualError(t, err, "carrier down")
	assert.Len(t, s.Sent(), 1)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender("log", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender("memory", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemorySender{}, s)

	_, err = NewSender("pigeon", zap.NewNop())
	assert.Error(t, err)
}
