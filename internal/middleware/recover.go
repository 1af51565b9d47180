package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"QuizFunnel/config"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/response"
)

// 只记录这些请求头，cookie 和 csrf token 不进日志
var loggedHeaders = []string{"Content-Type", "Content-Length", "Origin", "Referer", "User-Agent", "X-Request-Id"}

var internalError = errors.Definition{
	Code:    "INTERNAL_SERVER_ERROR",
	Message: "Internal server error, please try again later",
}

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 是否记录堆栈
	EnableStackTrace bool
	// 生产环境是否返回 panic 详情
	ExposeDetailsInProduction bool
	// 是否记录白名单内的请求头
	LogRequestDetails bool
	// 是否在 span 中记录异常
	RecordInSpan bool
	IsProduction bool
}

// NewRecoverConfig 创建 recover 配置
func NewRecoverConfig() RecoverConfig {
	return RecoverConfig{
		EnableStackTrace:  true,
		LogRequestDetails: true,
		RecordInSpan:      true,
		IsProduction:      config.Cfg.IsProduction(),
	}
}

// RecoverMiddleware 创建 recover 中间件
func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig())
}

// RecoverMiddlewareWithConfig 带配置的 recover 中间件
func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if rec := recover(); rec != nil {
				handlePanic(ctx, c, rec, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, rec interface{}, cfg RecoverConfig) {
	var stack []byte
	if cfg.EnableStackTrace {
		stack = trimStack(debug.Stack())
	}

	logPanic(ctx, c, rec, stack, cfg)

	if cfg.RecordInSpan {
		span := trace.SpanFromContext(ctx)
		span.RecordError(fmt.Errorf("panic: %v", rec))
		span.SetStatus(codes.Error, "panic recovered")
	}

	c.Abort()

	// 生产环境只返回通用提示
	if cfg.IsProduction && !cfg.ExposeDetailsInProduction {
		response.Error(ctx, c, internalError)
		return
	}

	details := map[string]interface{}{
		"panic":     fmt.Sprintf("%v", rec),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if cfg.EnableStackTrace {
		details["stack"] = string(stack)
	}
	response.ErrorWithDetails(ctx, c, internalError.WithMessage(fmt.Sprintf("Internal error: %v", rec)), details)
}

// trimStack 去掉 runtime 和 recover 自身的帧
func trimStack(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")
	kept := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "runtime/debug.") || strings.HasPrefix(line, "runtime.") || strings.Contains(line, "middleware.handlePanic") {
			i++ // 连同下一行的文件位置一起跳过
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}

// logPanic 请求体可能带附件和个人信息，只记录路由和白名单请求头
func logPanic(ctx context.Context, c *app.RequestContext, rec interface{}, stack []byte, cfg RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", rec)),
		zap.String("route", routeOf(c)),
		zap.String("method", string(c.Method())),
	}

	if sessionID, ok := GetSessionID(ctx, c); ok {
		fields = append(fields, zap.String("session_id", sessionID))
	}

	if cfg.LogRequestDetails {
		headers := make(map[string]string, len(loggedHeaders))
		for _, h := range loggedHeaders {
			if v := c.Request.Header.Get(h); v != "" {
				headers[h] = v
			}
		}
		fields = append(fields, zap.Any("headers", headers))
	}

	if len(stack) > 0 {
		fields = append(fields, zap.ByteString("stack", stack))
	}

	logger.Logger.Error("Panic recovered", fields...)
}
