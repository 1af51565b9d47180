package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/csrf"

	"QuizFunnel/config"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/response"
)

const CSRFHeader = "X-CSRF-TOKEN"

// CSRFMiddleware 非 GET 请求需要带 X-CSRF-TOKEN，必须挂在 SessionMiddleware 之后
func CSRFMiddleware() app.HandlerFunc {
	if !config.Cfg.CSRFEnabled {
		return func(ctx context.Context, c *app.RequestContext) {
			c.Next(ctx)
		}
	}

	return csrf.New(
		csrf.WithSecret(config.Cfg.SessionSecret),
		csrf.WithKeyLookUp("header:"+CSRFHeader),
		csrf.WithErrorFunc(func(ctx context.Context, c *app.RequestContext) {
			c.Abort()
			response.Error(ctx, c, errors.CSRFInvalid)
		}),
	)
}

// CSRFToken 当前会话的 csrf token，未启用时为空
func CSRFToken(c *app.RequestContext) string {
	if !config.Cfg.CSRFEnabled {
		return ""
	}
	return csrf.GetToken(c)
}
