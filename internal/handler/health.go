package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"QuizFunnel/pkg/response"
)

// Healthz 存活检查
// GET /healthz
func Healthz(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, map[string]string{"status": "ok"})
}
