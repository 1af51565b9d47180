package otel

// Resource 描述产生 telemetry 数据的实体，会附加到所有 spans 和 metrics 上
/*
Resource
    ↓
TracerProvider
    ├── Sampler - 父 span 优先，否则按比例
    ├── BatchSpanProcessor
    └── OTLP gRPC Exporter
         ↓
    OpenTelemetry Collector
*/

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const serviceNamespace = "quizfunnel"

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(GetServiceAttributes(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)...),
		resource.WithAttributes(semconv.TelemetrySDKLanguageGo),
		resource.WithHost(),
		resource.WithOSType(),
	)
}

// GetServiceAttributes 获取服务属性
func GetServiceAttributes(serviceName, serviceVersion, environment string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
		semconv.DeploymentEnvironment(environment),
		semconv.ServiceNamespace(serviceNamespace),
	}
}

// normalizeEndpoint gRPC exporter 只接受 host:port
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimSuffix(endpoint, "/")
}

// sampleRatio 开发环境全量采样
func sampleRatio(cfg Config) float64 {
	if cfg.Environment == "" || cfg.Environment == "development" {
		return 1
	}
	if cfg.SampleRatio <= 0 {
		return 0.1
	}
	if cfg.SampleRatio > 1 {
		return 1
	}
	return cfg.SampleRatio
}
