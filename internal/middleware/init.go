package middleware

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"QuizFunnel/pkg/logger"
)

// Init 用全局 MeterProvider 注册 HTTP 指标；OTel 未启用时是 noop
func Init() error {
	if err := InitMetrics(otel.Meter("quizfunnel.http")); err != nil {
		logger.Logger.Error("Failed to initialize HTTP metrics", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
