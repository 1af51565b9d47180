package middleware

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/sessions"
	"github.com/hertz-contrib/sessions/cookie"
	"go.uber.org/zap"

	"QuizFunnel/config"
	"QuizFunnel/internal/service"
	"QuizFunnel/internal/session"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/response"
)

const (
	// FunnelEntryKey 请求上下文中的会话条目
	FunnelEntryKey = "funnel_entry"
	// SessionIDKey 请求上下文中的会话 id，日志和限流使用
	SessionIDKey = "session_id"

	funnelIDCookieKey = "funnel_id"
)

// SessionMiddleware 签名 cookie 会话，csrf 也依赖它
func SessionMiddleware() app.HandlerFunc {
	cfg := config.Cfg
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionIdleMinutes * 60,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.New(cfg.SessionCookieName, store)
}

// FunnelSessionMiddleware 把 cookie 绑定到进程内的问卷会话，没有则新建
func FunnelSessionMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		sess := sessions.Default(c)
		id, _ := sess.Get(funnelIDCookieKey).(string)

		entry, created, err := service.Funnel().Session(id)
		if err != nil {
			logger.Logger.Error("Failed to create funnel session", zap.Error(err))
			response.Error(ctx, c, err)
			c.Abort()
			return
		}

		if created {
			sess.Set(funnelIDCookieKey, entry.ID)
			if err := sess.Save(); err != nil {
				logger.WithSession(entry.ID).Error("Failed to save session cookie", zap.Error(err))
			}
		}

		c.Set(FunnelEntryKey, entry)
		c.Set(SessionIDKey, entry.ID)
		c.Next(ctx)
	}
}

// GetFunnelEntry 从请求上下文中获取问卷会话
func GetFunnelEntry(c *app.RequestContext) (*session.Entry, bool) {
	v, exists := c.Get(FunnelEntryKey)
	if !exists {
		return nil, false
	}
	entry, ok := v.(*session.Entry)
	return entry, ok
}

// GetSessionID 从请求上下文中获取会话 id
func GetSessionID(ctx context.Context, c *app.RequestContext) (string, bool) {
	id := c.GetString(SessionIDKey)
	return id, id != ""
}
