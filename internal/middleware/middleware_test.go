package middleware

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	redislib "github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"QuizFunnel/config"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/response"
	"QuizFunnel/storage/redis"
)

func newEngine(mw ...app.HandlerFunc) *route.Engine {
	engine := route.NewEngine(hzconfig.NewOptions(nil))
	engine.Use(mw...)
	engine.GET("/ok", func(ctx context.Context, c *app.RequestContext) {
		c.String(200, "ok")
	})
	engine.POST("/ok", func(ctx context.Context, c *app.RequestContext) {
		c.String(200, "ok")
	})
	engine.GET("/panic", func(ctx context.Context, c *app.RequestContext) {
		panic("boom")
	})
	engine.GET("/fail", func(ctx context.Context, c *app.RequestContext) {
		response.Error(ctx, c, errors.InvalidRequest)
	})
	engine.GET("/healthz", func(ctx context.Context, c *app.RequestContext) {
		c.String(200, "ok")
	})
	return engine
}

func TestCORSPreflight(t *testing.T) {
	engine := newEngine(CORSMiddlewareWithOrigins([]string{"https://quiz.example.com/", " "}))

	w := ut.PerformRequest(engine, "OPTIONS", "/ok", nil, ut.Header{Key: "Origin", Value: "https://quiz.example.com"})
	resp := w.Result()
	if resp.StatusCode() != 204 {
		t.Fatalf("status = %d, want 204", resp.StatusCode())
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Origin")); got != "https://quiz.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Headers")); !strings.Contains(got, CSRFHeader) {
		t.Errorf("Allow-Headers = %q, missing %s", got, CSRFHeader)
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Credentials")); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}

func TestCORSUnknownOriginGetsNoCredentials(t *testing.T) {
	engine := newEngine(CORSMiddlewareWithOrigins([]string{"https://quiz.example.com"}))

	w := ut.PerformRequest(engine, "GET", "/ok", nil, ut.Header{Key: "Origin", Value: "https://evil.example.net"})
	resp := w.Result()
	if got := string(resp.Header.Peek("Access-Control-Allow-Origin")); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := string(resp.Header.Peek("Access-Control-Allow-Credentials")); got != "" {
		t.Errorf("Allow-Credentials = %q, want empty", got)
	}
	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRecoverHidesDetailsInProduction(t *testing.T) {
	cfg := NewRecoverConfig()
	cfg.IsProduction = true
	engine := newEngine(RecoverMiddlewareWithConfig(cfg))

	w := ut.PerformRequest(engine, "GET", "/panic", nil)
	if w.Code != 500 {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := gjson.ParseBytes(w.Body.Bytes())
	if got := body.Get("error.code").String(); got != "INTERNAL_SERVER_ERROR" {
		t.Errorf("code = %q", got)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("production response leaked panic value: %s", w.Body.String())
	}
}

func TestRecoverExposesDetailsOutsideProduction(t *testing.T) {
	cfg := NewRecoverConfig()
	cfg.IsProduction = false
	engine := newEngine(RecoverMiddlewareWithConfig(cfg))

	w := ut.PerformRequest(engine, "GET", "/panic", nil)
	body := gjson.ParseBytes(w.Body.Bytes())
	if got := body.Get("error.details.panic").String(); got != "boom" {
		t.Errorf("details.panic = %q, want boom", got)
	}
}

func TestRateLimitSkippedWhenRedisDisabled(t *testing.T) {
	redis.SetClient(nil)
	engine := newEngine(RateLimitMiddleware(RateLimitConfig{
		Window: 60, MaxRequests: 1, KeyPrefix: "rate:test", ByIP: true, BlockDuration: 60,
	}))

	for i := 0; i < 3; i++ {
		w := ut.PerformRequest(engine, "POST", "/ok", nil)
		if w.Code != 200 {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
}

func TestRateLimitFailsOpenOnRedisError(t *testing.T) {
	// 指向一个没有监听的端口
	client := redislib.NewClient(&redislib.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	redis.SetClient(client)
	t.Cleanup(func() {
		redis.SetClient(nil)
		_ = client.Close()
	})

	engine := newEngine(RateLimitMiddleware(RateLimitConfig{
		Window: 60, MaxRequests: 1, KeyPrefix: "rate:test", ByIP: true, BlockDuration: 60,
	}))

	for i := 0; i < 2; i++ {
		w := ut.PerformRequest(engine, "POST", "/ok", nil)
		if w.Code != 200 {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
}

func TestRateLimitIdentifier(t *testing.T) {
	old := config.Cfg
	t.Cleanup(func() { config.Cfg = old })
	config.Cfg.SessionSecret = "identifier-secret-0123456789"

	var ids []string
	probe := func(rl *RateLimiter) app.HandlerFunc {
		return func(ctx context.Context, c *app.RequestContext) {
			ids = append(ids, rl.identifier(ctx, c))
		}
	}

	bySession := NewRateLimiter(RateLimitConfig{BySession: true, ByIP: true})
	engine := route.NewEngine(hzconfig.NewOptions(nil))
	engine.POST("/with-session", func(ctx context.Context, c *app.RequestContext) {
		c.Set(SessionIDKey, "sess-1")
		c.Next(ctx)
	}, probe(bySession))
	engine.POST("/anonymous", probe(bySession))

	ut.PerformRequest(engine, "POST", "/with-session", nil)
	ut.PerformRequest(engine, "POST", "/anonymous", nil, ut.Header{Key: "X-Forwarded-For", Value: "203.0.113.9"})

	if len(ids) != 2 {
		t.Fatalf("identifiers = %v", ids)
	}
	if ids[0] != "session:sess-1" {
		t.Errorf("session identifier = %q", ids[0])
	}
	if !strings.HasPrefix(ids[1], "ip:") || strings.Contains(ids[1], "203.0.113.9") {
		t.Errorf("ip identifier = %q, want hashed", ids[1])
	}
}

func TestOpenTelemetryMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	if err := InitMetrics(provider.Meter("test")); err != nil {
		t.Fatalf("InitMetrics() error = %v", err)
	}
	t.Cleanup(func() { _ = InitMetrics(provider.Meter("noop")) })

	engine := newEngine(OpenTelemetryMiddleware())
	ut.PerformRequest(engine, "GET", "/ok?input=1%20George%20St", nil)
	ut.PerformRequest(engine, "GET", "/fail", nil)
	ut.PerformRequest(engine, "GET", "/healthz", nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	counts := map[string]int64{}
	var codes []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.requests.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("http.route"))
				counts[route.AsString()] += dp.Value
				if code, ok := dp.Attributes.Value(attribute.Key("funnel.error_code")); ok {
					codes = append(codes, code.AsString())
				}
			}
		}
	}

	if counts["/ok"] != 1 || counts["/fail"] != 1 {
		t.Errorf("route counts = %v", counts)
	}
	if _, ok := counts["/healthz"]; ok {
		t.Error("healthz should not be recorded")
	}
	for route := range counts {
		if strings.Contains(route, "George") {
			t.Errorf("route label leaked query: %q", route)
		}
	}
	if len(codes) != 1 || codes[0] != errors.InvalidRequest.Code {
		t.Errorf("error codes = %v", codes)
	}
}
