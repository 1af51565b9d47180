package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// httpInstruments 接口层指标，按路由模板聚合
type httpInstruments struct {
	requests   metric.Int64Counter
	duration   metric.Float64Histogram
	uploadSize metric.Int64Histogram
	inflight   metric.Int64UpDownCounter
}

var instruments = &httpInstruments{}

// 不进 trace 和指标的路由
var untracedRoutes = map[string]struct{}{
	"/healthz": {},
}

func init() {
	// Init 之前（例如测试里）使用 noop 指标
	_ = InitMetrics(noop.NewMeterProvider().Meter("quizfunnel.http"))
}

// InitMetrics 用给定 meter 重建接口层指标
func InitMetrics(meter metric.Meter) error {
	var (
		m   httpInstruments
		err error
	)

	m.requests, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.duration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		// 提交会串行调用三个外部服务，上限放宽到 30s
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	m.uploadSize, err = meter.Int64Histogram(
		"http.server.upload.size",
		metric.WithDescription("Size of multipart uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	m.inflight, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	instruments = &m
	return nil
}

// routeOf 用路由模板做 span 名和标签，原始 URL 里有地址输入，不能上报
func routeOf(c *app.RequestContext) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// errorCodeOf 从统一错误响应里取业务错误码
func errorCodeOf(c *app.RequestContext) string {
	body := c.Response.Body()
	if len(body) == 0 {
		return ""
	}
	return gjson.GetBytes(body, "error.code").String()
}

// OpenTelemetryMiddleware 请求级 span + 指标，会话 id 在下游中间件绑定后补上
func OpenTelemetryMiddleware() app.HandlerFunc {
	tracer := otel.Tracer("quizfunnel.http")

	return func(ctx context.Context, c *app.RequestContext) {
		route := routeOf(c)
		if _, skip := untracedRoutes[route]; skip {
			c.Next(ctx)
			return
		}

		m := instruments
		start := time.Now()
		method := strings.ToValidUTF8(string(c.Method()), "")

		m.inflight.Add(ctx, 1)
		defer m.inflight.Add(ctx, -1)

		spanCtx, span := tracer.Start(ctx, method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(method),
				semconv.HTTPRoute(route),
			),
		)
		defer span.End()

		if requestID := c.GetHeader("X-Request-Id"); len(requestID) > 0 {
			span.SetAttributes(attribute.String("http.request_id", strings.ToValidUTF8(string(requestID), "")))
		}

		c.Next(spanCtx)

		status := c.Response.StatusCode()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if sessionID := c.GetString(SessionIDKey); sessionID != "" {
			span.SetAttributes(attribute.String("funnel.session_id", sessionID))
		}

		labels := []attribute.KeyValue{
			semconv.HTTPMethod(method),
			semconv.HTTPRoute(route),
			semconv.HTTPStatusCode(status),
		}

		if status >= 400 {
			code := errorCodeOf(c)
			if code != "" {
				span.SetAttributes(attribute.String("funnel.error_code", code))
				labels = append(labels, attribute.String("funnel.error_code", code))
			}
			span.SetStatus(codes.Error, code)
			if lastErr := c.Errors.Last(); lastErr != nil && status >= 500 {
				span.RecordError(lastErr)
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}

		m.requests.Add(ctx, 1, metric.WithAttributes(labels...))
		m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

		if strings.HasPrefix(string(c.ContentType()), "multipart/") {
			if size := int64(c.Request.Header.ContentLength()); size > 0 {
				m.uploadSize.Record(ctx, size, metric.WithAttributes(semconv.HTTPRoute(route)))
			}
		}
	}
}

// NewServerTracerConfig 创建 Hertz Server 的追踪配置
// 返回用于初始化 Hertz server 的配置选项和追踪中间件
func NewServerTracerConfig(opts ...hertztracing.Option) (config.Option, app.HandlerFunc) {
	tracer, cfg := hertztracing.NewServerTracer(opts...)
	return tracer, hertztracing.ServerMiddleware(cfg)
}
