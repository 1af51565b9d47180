package airtable

import (
	"fmt"

	"github.com/tidwall/gjson"

	"QuizFunnel/pkg/httpclient"
)

// APIError 非 2xx 响应。Type/Message 在响应体无法解析时为空
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	case e.Type != "":
		return fmt.Sprintf("airtable: %d %s", e.StatusCode, e.Type)
	}
	return fmt.Sprintf("airtable: status %d", e.StatusCode)
}

func (e *APIError) ErrorType() string    { return e.Type }
func (e *APIError) HTTPStatus() int      { return e.StatusCode }
func (e *APIError) ErrorMessage() string { return e.Message }

// decodeError error 字段可能是字符串（"NOT_FOUND"），也可能是 {type, message} 对象
func decodeError(resp httpclient.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if !gjson.ValidBytes(resp.Body) {
		return apiErr
	}

	field := gjson.GetBytes(resp.Body, "error")
	switch {
	case field.IsObject():
		apiErr.Type = field.Get("type").String()
		apiErr.Message = field.Get("message").String()
	case field.Type == gjson.String:
		apiErr.Type = field.String()
	}
	return apiErr
}
