package handler

import (
	"context"
	stderrors "errors"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"QuizFunnel/internal/model"
	"QuizFunnel/internal/model/dto"
	"QuizFunnel/internal/service"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/response"
)

// SubmitContact 单页联系表单，multipart 提交，可选 pdf 附件
// POST /v1/contacts
func SubmitContact(ctx context.Context, c *app.RequestContext) {
	var req dto.ContactFormRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var pdf *model.Attachment
	if _, err := c.FormFile("pdf"); err == nil {
		att, err := readAttachment(c, "pdf")
		if err != nil {
			response.Error(ctx, c, err)
			return
		}
		pdf = att
	}

	receipt, err := service.Contact().Submit(ctx, req, pdf)
	if err != nil {
		var fieldErrs service.FieldErrors
		if stderrors.As(err, &fieldErrs) {
			response.ErrorWithDetails(ctx, c, errors.ValidationError, fieldErrs.Details())
			return
		}
		response.Error(ctx, c, err)
		return
	}

	logger.Logger.Info("Contact form submitted",
		zap.String("record_id", receipt.RecordID),
		zap.Int64("submission_id", receipt.SubmissionID),
		zap.String("attachment", attachmentLabel(pdf)),
	)
	response.Success(ctx, c, dto.NewContactFormResponse(receipt, service.ContactSuccessMessage))
}
