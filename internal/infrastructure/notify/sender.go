// Package notify hands outbound messages to a delivery provider.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/remotive/saleshub/internal/domain/messaging"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogSender writes messages to the structured log instead of a carrier.
// It is the default until an SMS or email provider is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: log}
}

// Send logs the message and returns a log reference.
func (s *LogSender) Send(ctx context.Context, m *messaging.Message) (string, error) {
	ref := "log-" + uuid.NewString()
	s.logger.Info("Outbound message",
		zap.String("request_id", logger.GetRequestID(ctx)),
		zap.String("tenant_id", m.TenantID.String()),
		zap.String("message_id", m.ID.String()),
		zap.String("channel", string(m.Channel)),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("body_length", len(m.Body)),
		zap.String("template", m.Template),
		zap.String("provider_ref", ref),
	)
	return ref, nil
}

// MemorySender keeps sent messages in process for tests and demos.
type MemorySender struct {
	mu   sync.Mutex
	sent []messaging.Message
	err  error
}

// NewMemorySender creates an empty MemorySender
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send records a copy of m, or fails with the configured error.
func (s *MemorySender) Send(_ context.Context, m *messaging.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, *m)
	return fmt.Sprintf("mem-%d", len(s.sent)), nil
}

// FailWith makes subsequent sends fail. Pass nil to recover.
func (s *MemorySender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Sent returns a copy of everything sent so far.
func (s *MemorySender) Sent() []messaging.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]messaging.Message(nil), s.sent...)
}

// Sender is implemented by every provider in this package.
type Sender interface {
	Send(ctx context.Context, m *messaging.Message) (string, error)
}

// NewSender selects a provider by name.
func NewSender(name string, log *zap.Logger) (Sender, error) {
	switch name {
	case "", "log":
		return NewLogSender(log), nil
	case "memory":
		return NewMemorySender(), nil
	default:
		return nil, fmt.Errorf("unknown message sender %q", name)
	}
}
