package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"QuizFunnel/config"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/response"
	"QuizFunnel/storage/redis"
	"QuizFunnel/utils"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按会话限流
	BySession bool
	// 是否按IP限流
	ByIP bool
	// 阻塞时长（秒），超过限制后禁止访问的时间
	BlockDuration int
	// 错误消息
	ErrorMessage string
}

// SubmitRateLimitConfig 问卷提交限流，按会话计数
func SubmitRateLimitConfig() RateLimitConfig {
	cfg := config.Cfg
	return RateLimitConfig{
		Window:        cfg.RateLimitWindowSeconds,
		MaxRequests:   cfg.RateLimitMaxRequests,
		KeyPrefix:     "rate:advance",
		BySession:     true,
		ByIP:          true,
		BlockDuration: cfg.RateLimitBlockSeconds,
		ErrorMessage:  "Too many submissions, please wait a moment and try again",
	}
}

// ContactRateLimitConfig 联系表单限流，没有问卷会话，只按 IP
func ContactRateLimitConfig() RateLimitConfig {
	cfg := config.Cfg
	return RateLimitConfig{
		Window:        cfg.RateLimitWindowSeconds,
		MaxRequests:   cfg.RateLimitMaxRequests,
		KeyPrefix:     "rate:contact",
		BySession:     false,
		ByIP:          true,
		BlockDuration: cfg.RateLimitBlockSeconds,
		ErrorMessage:  "Too many submissions, please wait a moment and try again",
	}
}

// RateLimiter 限流器
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
	}
}

// identifier 优先会话，其次 IP
func (rl *RateLimiter) identifier(ctx context.Context, c *app.RequestContext) string {
	if rl.config.BySession {
		if id, ok := GetSessionID(ctx, c); ok {
			return "session:" + id
		}
	}
	if rl.config.ByIP {
		return "ip:" + utils.HashIdentifier(config.Cfg.SessionSecret, c.ClientIP())
	}
	return "global"
}

func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	return redis.Key(rl.config.KeyPrefix, rl.identifier(ctx, c))
}

func (rl *RateLimiter) blockKey(ctx context.Context, c *app.RequestContext) string {
	return redis.Key(rl.config.KeyPrefix, "block", rl.identifier(ctx, c))
}

// Allow 检查是否允许请求，使用滑动窗口算法
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	// zset 实现滑动窗口
	pipe := redis.Client().Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	return redis.Client().Set(ctx, rl.blockKey(ctx, c), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	result, err := redis.Client().Exists(ctx, rl.blockKey(ctx, c)).Result()
	return result > 0, err
}

func (rl *RateLimiter) reject(ctx context.Context, c *app.RequestContext) {
	c.Abort()
	response.Error(ctx, c, errors.TooManyRequests.WithMessage(rl.config.ErrorMessage))
}

// RateLimitMiddleware 创建限流中间件。Redis 未启用或出错时放行，不能因为限流丢线索
func RateLimitMiddleware(config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(ctx context.Context, c *app.RequestContext) {
		if !redis.Enabled() || config.MaxRequests <= 0 {
			c.Next(ctx)
			return
		}

		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Warn("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			limiter.reject(ctx, c)
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Warn("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block client", zap.Error(err))
			}
			limiter.reject(ctx, c)
			return
		}

		c.Next(ctx)
	}
}

// SubmitRateLimitMiddleware 问卷提交限流中间件
func SubmitRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(SubmitRateLimitConfig())
}

// ContactRateLimitMiddleware 联系表单限流中间件
func ContactRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(ContactRateLimitConfig())
}
