package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"QuizFunnel/config"
	"QuizFunnel/pkg/logger"
	redisotel "QuizFunnel/pkg/redis"
)

var (
	client *redis.Client
	once   sync.Once
	err    error
)

// Init 只在 REDIS_ENABLED 时连接；未启用时限流中间件直接放行
func Init() error {
	once.Do(func() {
		cfg := config.Cfg
		if !cfg.RedisEnabled {
			logger.Logger.Info("Redis disabled, rate limiting is off")
			return
		}

		c := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MinIdleConns: 2,
			MaxRetries:   3,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err = c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return
		}

		if cfg.OTelEnabled {
			if mErr := redisotel.InitRedisMetrics(); mErr != nil {
				logger.Logger.Warn("Failed to init Redis metrics", zap.Error(mErr))
			} else {
				redisotel.InstrumentRedisClient(c, cfg.ServiceName, cfg.RedisDB)
			}
		}

		client = c
		logger.Logger.Info("Redis connected", zap.String("addr", cfg.RedisAddr))
	})

	return err
}

// Enabled Redis 是否可用
func Enabled() bool {
	return client != nil
}

func Client() *redis.Client {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

// SetClient 注入外部客户端，nil 表示关闭
func SetClient(c *redis.Client) {
	client = c
}

func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = "qf"
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}

	return sb.String()
}
