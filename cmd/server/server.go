package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.uber.org/zap"

	"QuizFunnel/config"
	"QuizFunnel/internal/middleware"
	"QuizFunnel/internal/router"
	"QuizFunnel/internal/service"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/metrics"
	"QuizFunnel/pkg/otel"
	"QuizFunnel/pkg/snowflake"
	"QuizFunnel/storage"
)

// multipart 包头和普通字段的余量
const bodyOverhead = 1 << 20

func main() {
	config.Init()

	// 日志部分
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	serverOpts := []hzconfig.Option{
		server.WithHostPorts(net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)),
		server.WithMaxRequestBodySize(int(config.Cfg.MaxAttachmentBytes) + bodyOverhead),
	}

	// 链路追踪，关闭时全局 provider 保持 noop
	var tracingMW app.HandlerFunc
	if config.Cfg.OTelEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.ServiceVer,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTelEndpoint,
			SampleRatio:    config.Cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry, tracing disabled", zap.Error(err))
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
				}
			}()

			var tracerOpt hzconfig.Option
			tracerOpt, tracingMW = middleware.NewServerTracerConfig()
			serverOpts = append(serverOpts, tracerOpt)
		}
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.Logger.Warn("Failed to initialize funnel metrics", zap.Error(err))
	}

	// 初始化中间件
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	deps, err := service.NewDependencies(config.Cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	service.Init(deps)

	// 空闲会话回收，随 ctx 退出
	go deps.Registry.Run(ctx)
	defer deps.Registry.Close()

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	h := server.Default(serverOpts...)
	if tracingMW != nil {
		h.Use(tracingMW)
	}
	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
