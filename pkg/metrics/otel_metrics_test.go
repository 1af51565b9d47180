package metrics

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"QuizFunnel/pkg/errors"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestFunnelMetricsRecordsObserverEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewFunnelMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewFunnelMetrics() error = %v", err)
	}

	m.StepReached(0, "homeOwnership")
	m.StepReached(1, "electricityBill")
	m.Disqualified("rent")
	m.SubmissionFinished(nil, 300*time.Millisecond)
	m.SubmissionFinished(errors.ConnectivityError, time.Second)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed(1)

	got := collect(t, reader)
	if n := sumOf(t, got["funnel_step_reached_total"]); n != 2 {
		t.Fatalf("step reached = %d", n)
	}
	if n := sumOf(t, got["funnel_disqualified_total"]); n != 1 {
		t.Fatalf("disqualified = %d", n)
	}
	if n := sumOf(t, got["funnel_submission_total"]); n != 2 {
		t.Fatalf("submissions = %d", n)
	}
	if n := sumOf(t, got["funnel_active_sessions"]); n != 1 {
		t.Fatalf("active sessions = %d", n)
	}

	hist, ok := got["funnel_submission_duration_seconds"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", got["funnel_submission_duration_seconds"])
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Fatalf("histogram count = %d", count)
	}
}

func TestOutcomeCode(t *testing.T) {
	if got := outcomeCode(errors.CreateFailedError.WithMessage("x")); got != "CREATE_FAILED" {
		t.Fatalf("outcomeCode() = %q", got)
	}
	if got := outcomeCode(context.Canceled); got != "INTERNAL_ERROR" {
		t.Fatalf("outcomeCode() = %q", got)
	}
}
