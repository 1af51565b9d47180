package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"QuizFunnel/internal/handler"
	"QuizFunnel/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/healthz", handler.Healthz)

	v1 := h.Group("/v1")

	// 问卷漏斗路由，会话 cookie + CSRF
	funnel := v1.Group("/funnel")
	funnel.Use(middleware.SessionMiddleware(), middleware.CSRFMiddleware(), middleware.FunnelSessionMiddleware())
	{
		funnel.GET("/steps", handler.GetSteps)
		funnel.GET("", handler.GetFunnel)
		funnel.PUT("/answers", handler.UpdateAnswer)
		funnel.PUT("/address", handler.TypeAddress)
		funnel.GET("/address/suggestions", handler.SuggestAddresses)
		funnel.POST("/address/select", handler.SelectAddress)
		funnel.POST("/attachment", handler.AttachFile)
		funnel.DELETE("/attachment", handler.ClearFile)
		funnel.POST("/advance", middleware.SubmitRateLimitMiddleware(), handler.Advance) // 最后一步会提交，限流
		funnel.POST("/reset", handler.Reset)
	}

	// 单页联系表单
	contacts := v1.Group("/contacts")
	contacts.Use(middleware.SessionMiddleware(), middleware.CSRFMiddleware())
	{
		contacts.POST("", middleware.ContactRateLimitMiddleware(), handler.SubmitContact)
	}
}
