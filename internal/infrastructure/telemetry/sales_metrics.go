package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	MetricAttrOutcome = attribute.Key("outcome")
	MetricAttrReason  = attribute.Key("reason")
	MetricAttrJob     = attribute.Key("job")
	MetricAttrResult  = attribute.Key("result")
)

// LeadOutcome labels what an inbound post turned into.
type LeadOutcome string

const (
	LeadCreated   LeadOutcome = "created"
	LeadDuplicate LeadOutcome = "duplicate"
	LeadReopened  LeadOutcome = "reopened"
)

// FallbackReason labels why round-robin could not pick normally.
type FallbackReason string

const (
	// FallbackCursorUnavailable: the rotation cursor failed and the first
	// candidate was used.
	FallbackCursorUnavailable FallbackReason = "cursor_unavailable"
	// FallbackNoRecipients: nobody takes leads, so an owner or the creator
	// got the lead.
	FallbackNoRecipients FallbackReason = "no_recipients"
)

// Job results.
const (
	JobSucceeded = "success"
	JobFailed    = "failure"
)

// ErrMeterNil is returned when SalesMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SalesMetrics counts lead intake, routing and nightly maintenance.
type SalesMetrics struct {
	leadsReceived     metric.Int64Counter
	assignFallbacks   metric.Int64Counter
	jobRuns           metric.Int64Counter
	jobRetries        metric.Int64Counter
	jobDuration       metric.Float64Histogram
	quotesExpired     metric.Int64Counter
	customersRescored metric.Int64Counter
}

// jobDurationBuckets spans a quick tenant to a slow full rescore (seconds).
var jobDurationBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300}

// NewSalesMetrics creates the SalesHub instruments on meter.
func NewSalesMetrics(meter metric.Meter) (*SalesMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &SalesMetrics{}
	counters := []struct {
		dst        *metric.Int64Counter
		name, desc string
		unit       string
	}{
		{&m.leadsReceived, "saleshub_inbound_leads_total", "Inbound leads received, by outcome", "{leads}"},
		{&m.assignFallbacks, "saleshub_assignment_fallbacks_total", "Leads routed outside the normal round-robin", "{leads}"},
		{&m.jobRuns, "saleshub_job_runs_total", "Finished maintenance jobs, by result", "{jobs}"},
		{&m.jobRetries, "saleshub_job_retries_total", "Maintenance job retries scheduled", "{retries}"},
		{&m.quotesExpired, "saleshub_quotes_expired_total", "Quotes moved to expired", "{quotes}"},
		{&m.customersRescored, "saleshub_customers_rescored_total", "Customers whose score or temperature changed on rescore", "{customers}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	h, err := meter.Float64Histogram("saleshub_job_duration_seconds",
		metric.WithDescription("Maintenance job run time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(jobDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram saleshub_job_duration_seconds: %w", err)
	}
	m.jobDuration = h
	return m, nil
}

func tenantAttr(tenantID uuid.UUID) attribute.KeyValue {
	return attribute.String(AttrTenantID, tenantID.String())
}

// RecordLead counts one inbound post.
func (m *SalesMetrics) RecordLead(ctx context.Context, tenantID uuid.UUID, outcome LeadOutcome) {
	m.leadsReceived.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), MetricAttrOutcome.String(string(outcome))))
}

// RecordAssignmentFallback counts a lead the rotation could not place normally.
func (m *SalesMetrics) RecordAssignmentFallback(ctx context.Context, tenantID uuid.UUID, reason FallbackReason) {
	m.assignFallbacks.Add(ctx, 1, metric.WithAttributes(tenantAttr(tenantID), MetricAttrReason.String(string(reason))))
}

// RecordJob counts a finished job and its run time. result is JobSucceeded
// or JobFailed.
func (m *SalesMetrics) RecordJob(ctx context.Context, job, result string, took time.Duration) {
	kind := MetricAttrJob.String(job)
	m.jobRuns.Add(ctx, 1, metric.WithAttributes(kind, MetricAttrResult.String(result)))
	m.jobDuration.Record(ctx, took.Seconds(), metric.WithAttributes(kind))
}

// RecordJobRetry counts a retry scheduled for job.
func (m *SalesMetrics) RecordJobRetry(ctx context.Context, job string) {
	m.jobRetries.Add(ctx, 1, metric.WithAttributes(MetricAttrJob.String(job)))
}

// RecordQuotesExpired adds n expired quotes for a tenant.
func (m *SalesMetrics) RecordQuotesExpired(ctx context.Context, tenantID uuid.UUID, n int) {
	if n > 0 {
		m.quotesExpired.Add(ctx, int64(n), metric.WithAttributes(tenantAttr(tenantID)))
	}
}

// RecordCustomersRescored adds n rescored customers for a tenant.
func (m *SalesMetrics) RecordCustomersRescored(ctx context.Context, tenantID uuid.UUID, n int) {
	if n > 0 {
		m.customersRescored.Add(ctx, int64(n), metric.WithAttributes(tenantAttr(tenantID)))
	}
}
