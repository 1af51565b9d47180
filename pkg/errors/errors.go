package errors

import stderrors "errors"

func (d Definition) Error() string {
	return d.Message
}

// Is 按错误码比较，WithMessage 覆盖过文案的错误仍然可以用 errors.Is 判断
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	if !ok {
		return false
	}
	return t.Code == d.Code
}

// WithMessage 返回替换了文案的副本，错误码不变
func (d Definition) WithMessage(message string) Definition {
	if message == "" {
		return d
	}
	return Definition{Code: d.Code, Message: message}
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 字段校验错误，只在问卷控制器内部产生，不会触达外部服务。
var (
	FieldRequired         = Definition{Code: "FIELD_REQUIRED", Message: "This field is required"}
	EmailInvalid          = Definition{Code: "EMAIL_INVALID", Message: "Please enter a valid email address"}
	PhoneInvalid          = Definition{Code: "PHONE_INVALID", Message: "Please enter a valid Australian mobile number"}
	NotHomeowner          = Definition{Code: "NOT_HOMEOWNER", Message: "You must be a homeowner to qualify for solar rebates"}
	AddressUnconfirmed    = Definition{Code: "ADDRESS_UNCONFIRMED", Message: "Please enter a valid address"}
	AttachmentTooLarge    = Definition{Code: "ATTACHMENT_TOO_LARGE", Message: "File must be less than 10MB"}
	AttachmentTypeInvalid = Definition{Code: "ATTACHMENT_TYPE_INVALID", Message: "Please upload a PDF or image file"}
	FieldUnknown          = Definition{Code: "FIELD_UNKNOWN", Message: "Unknown field"}
)

// 提交网关错误。
var (
	ValidationError   = Definition{Code: "VALIDATION_ERROR", Message: "Required fields are missing"}
	ConnectivityError = Definition{Code: "CONNECTIVITY_ERROR", Message: "Connection failed. Please check your internet connection and Airtable credentials."}
	AttachmentError   = Definition{Code: "ATTACHMENT_ERROR", Message: "Failed to process file. Please try again."}
	CreateFailedError = Definition{Code: "CREATE_FAILED", Message: "Failed to create contact record"}
	UnknownError      = Definition{Code: "UNKNOWN_ERROR", Message: "An unexpected error occurred. Please check your internet connection and try again."}
)

// 问卷会话状态错误。
var (
	SubmissionInProgress = Definition{Code: "SUBMISSION_IN_PROGRESS", Message: "Submission already in progress"}
	FunnelComplete       = Definition{Code: "FUNNEL_COMPLETE", Message: "This funnel has already been completed"}
	AddressLookupFailed  = Definition{Code: "ADDRESS_LOOKUP_FAILED", Message: "Error loading address suggestions. Please check your internet connection and try again."}
)

// 通用请求错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
	CSRFInvalid     = Definition{Code: "CSRF_INVALID", Message: "Invalid or missing CSRF token"}
)

// IsFieldError 判断是否为字段级校验错误
func IsFieldError(err error) bool {
	var def Definition
	if !stderrors.As(err, &def) {
		return false
	}
	switch def.Code {
	case FieldRequired.Code, EmailInvalid.Code, PhoneInvalid.Code, NotHomeowner.Code,
		AddressUnconfirmed.Code, AttachmentTooLarge.Code, AttachmentTypeInvalid.Code,
		FieldUnknown.Code, ValidationError.Code:
		return true
	}
	return false
}
