package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newRecordingProvider(t *testing.T) (*TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := newWithExporter(Config{Enabled: true, ServiceName: "saleshub-test", SamplingRatio: 1}, zap.NewNop(), exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NotNil(t, tp.Tracer("x"))
}

func TestStartServiceSpan(t *testing.T) {
	tp, exporter := newRecordingProvider(t)

	ctx, span := StartServiceSpan(context.Background(), "customer", "create", AttrTenantID, "t-1", "count", 3)
	assert.NotEmpty(t, GetTraceID(ctx))
	SetAttributes(span, AttrDuplicate, true)
	AddEvent(span, "assigned", AttrUserID, "u-1")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "customer.create", spans[0].Name)
	attrs := attrMap(spans[0].Attributes)
	assert.Equal(t, "t-1", attrs[AttrTenantID].AsString())
	assert.Equal(t, int64(3), attrs["count"].AsInt64())
	assert.True(t, attrs[AttrDuplicate].AsBool())
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Len(t, spans[0].Events, 2) // assigned + exception
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.5).Description(), "ParentBased")
}

type widget struct {
	ID   uint
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	tp, exporter := newRecordingProvider(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Nanosecond}, zap.NewNop()))

	ctx, span := StartServiceSpan(context.Background(), "test", "query")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got []widget
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	var dbSpans int
	for _, s := range exporter.GetSpans() {
		if s.Name == "test.query" {
			continue
		}
		dbSpans++
		attrs := attrMap(s.Attributes)
		assert.Equal(t, "widgets", attrs["db.sql.table"].AsString())
		assert.True(t, attrs["db.slow_query"].AsBool())
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
}
