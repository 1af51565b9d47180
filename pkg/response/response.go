package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"QuizFunnel/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// StatusFor 把业务错误码映射为 HTTP 状态码
func StatusFor(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.FieldRequired.Code, errors.EmailInvalid.Code, errors.PhoneInvalid.Code,
		errors.NotHomeowner.Code, errors.AddressUnconfirmed.Code,
		errors.AttachmentTypeInvalid.Code, errors.FieldUnknown.Code,
		errors.ValidationError.Code, errors.InvalidRequest.Code:
		return http.StatusBadRequest // 400
	case errors.CSRFInvalid.Code:
		return http.StatusForbidden // 403
	case errors.AttachmentTooLarge.Code:
		return http.StatusRequestEntityTooLarge // 413
	case errors.SubmissionInProgress.Code, errors.FunnelComplete.Code:
		return http.StatusConflict // 409
	case errors.ConnectivityError.Code, errors.AttachmentError.Code,
		errors.CreateFailedError.Code, errors.UnknownError.Code,
		errors.AddressLookupFailed.Code:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

func detailOf(err error) (string, string) {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code, def.Message
	}
	return "INTERNAL_ERROR", err.Error()
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	code, message := detailOf(err)
	c.JSON(StatusFor(err), ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

// FailWithData 业务失败但仍需要带回最新状态（例如问卷快照）
func FailWithData(ctx context.Context, c *app.RequestContext, err error, data interface{}) {
	code, message := detailOf(err)
	c.JSON(StatusFor(err), map[string]interface{}{
		"error": ErrorDetail{Code: code, Message: message},
		"data":  data,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}
