package metrics

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"QuizFunnel/pkg/errors"
)

// FunnelMetrics 问卷漏斗指标，同时实现 funnel.Observer
type FunnelMetrics struct {
	StepReachedTotal   metric.Int64Counter
	DisqualifiedTotal  metric.Int64Counter
	SubmissionTotal    metric.Int64Counter
	SubmissionDuration metric.Float64Histogram
	ActiveSessions     metric.Int64UpDownCounter
}

var (
	// 全局指标实例
	metrics *FunnelMetrics
)

// InitMetrics 用全局 MeterProvider 初始化指标
func InitMetrics() error {
	m, err := NewFunnelMetrics(otel.Meter("quizfunnel"))
	if err != nil {
		return err
	}
	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例，未初始化时为 nil
func GetMetrics() *FunnelMetrics {
	return metrics
}

func NewFunnelMetrics(meter metric.Meter) (*FunnelMetrics, error) {
	var err error
	m := &FunnelMetrics{}

	m.StepReachedTotal, err = meter.Int64Counter(
		"funnel_step_reached_total",
		metric.WithDescription("Number of times a funnel step was shown"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	m.DisqualifiedTotal, err = meter.Int64Counter(
		"funnel_disqualified_total",
		metric.WithDescription("Number of non-homeowner disqualifications"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	m.SubmissionTotal, err = meter.Int64Counter(
		"funnel_submission_total",
		metric.WithDescription("Number of lead submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	m.SubmissionDuration, err = meter.Float64Histogram(
		"funnel_submission_duration_seconds",
		metric.WithDescription("Time spent submitting a lead in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15),
	)
	if err != nil {
		return nil, err
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"funnel_active_sessions",
		metric.WithDescription("Number of live funnel sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// StepReached 记录到达某一步
func (m *FunnelMetrics) StepReached(index int, field string) {
	m.StepReachedTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int("step", index),
		attribute.String("field", field),
	))
}

// Disqualified 记录非业主被拒
func (m *FunnelMetrics) Disqualified(choice string) {
	m.DisqualifiedTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("choice", choice),
	))
}

// SubmissionFinished 按结果码记录提交次数和耗时
func (m *FunnelMetrics) SubmissionFinished(err error, elapsed time.Duration) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("status", "success"),
		attribute.String("code", ""),
	}
	if err != nil {
		attrs = []attribute.KeyValue{
			attribute.String("status", "failed"),
			attribute.String("code", outcomeCode(err)),
		}
	}

	m.SubmissionTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.SubmissionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs[0]))
}

// SessionOpened / SessionClosed 维护活跃会话数
func (m *FunnelMetrics) SessionOpened() {
	m.ActiveSessions.Add(context.Background(), 1)
}

func (m *FunnelMetrics) SessionClosed(n int) {
	m.ActiveSessions.Add(context.Background(), -int64(n))
}

func outcomeCode(err error) string {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code
	}
	return "INTERNAL_ERROR"
}
