package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"QuizFunnel/internal/middleware"
	"QuizFunnel/internal/model/dto"
	"QuizFunnel/internal/service"
	"QuizFunnel/internal/session"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/response"
)

// currentEntry FunnelSessionMiddleware 保证存在，缺失说明路由没挂中间件
func currentEntry(ctx context.Context, c *app.RequestContext) (*session.Entry, bool) {
	entry, ok := middleware.GetFunnelEntry(c)
	if !ok {
		response.Error(ctx, c, errors.InvalidRequest.WithMessage("Funnel session is missing"))
		return nil, false
	}
	return entry, true
}

// renderSnapshot 成功返回快照；失败时错误和最新快照一起返回，前端据此展示行内错误
func renderSnapshot(ctx context.Context, c *app.RequestContext, entry *session.Entry, err error) {
	view := service.Funnel().View(entry, middleware.CSRFToken(c))
	if err != nil {
		response.FailWithData(ctx, c, err, view)
		return
	}
	response.Success(ctx, c, view)
}

// GetSteps 步骤定义
// GET /v1/funnel/steps
func GetSteps(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, service.Funnel().Steps())
}

// GetFunnel 当前会话快照，会取走待展示的提示
// GET /v1/funnel
func GetFunnel(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}
	renderSnapshot(ctx, c, entry, nil)
}

// UpdateAnswer 写入文本类字段
// PUT /v1/funnel/answers
func UpdateAnswer(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}

	var req dto.UpdateAnswerRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	err := service.Funnel().UpdateAnswer(ctx, entry, req)
	renderSnapshot(ctx, c, entry, err)
}

// TypeAddress 手动输入地址
// PUT /v1/funnel/address
func TypeAddress(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}

	var req dto.TypeAddressRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	err := service.Funnel().TypeAddress(ctx, entry, req.Address)
	renderSnapshot(ctx, c, entry, err)
}

// SuggestAddresses 地址联想
// GET /v1/funnel/address/suggestions?input=
func SuggestAddresses(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}

	var query dto.AddressSuggestionsQuery
	if err := c.BindQuery(&query); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	suggestions, err := service.Funnel().SuggestAddresses(ctx, entry, query.Input)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, suggestions)
}

// SelectAddress 选中联想结果
// POST /v1/funnel/address/select
func SelectAddress(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}

	var req dto.SelectAddressRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	err := service.Funnel().SelectAddress(ctx, entry, req.PlaceID)
	renderSnapshot(ctx, c, entry, err)
}

// AttachFile 上传账单附件（multipart 字段 file）
// POST /v1/funnel/attachment
func AttachFile(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}

	att, err := readAttachment(c, "file")
	if err != nil {
		renderSnapshot(ctx, c, entry, err)
		return
	}

	err = service.Funnel().Attach(ctx, entry, att)
	renderSnapshot(ctx, c, entry, err)
}

// ClearFile 移除附件
// DELETE /v1/funnel/attachment
func ClearFile(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}
	err := service.Funnel().Detach(ctx, entry)
	renderSnapshot(ctx, c, entry, err)
}

// Advance 校验当前步骤并前进，最后一步提交
// POST /v1/funnel/advance
func Advance(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}
	err := service.Funnel().Advance(ctx, entry)
	renderSnapshot(ctx, c, entry, err)
}

// Reset 回到第一步
// POST /v1/funnel/reset
func Reset(ctx context.Context, c *app.RequestContext) {
	entry, ok := currentEntry(ctx, c)
	if !ok {
		return
	}
	err := service.Funnel().Reset(ctx, entry)
	renderSnapshot(ctx, c, entry, err)
}
