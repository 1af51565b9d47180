package funnel

import (
	"fmt"
	"strconv"
	"strings"

	"QuizFunnel/internal/model"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/utils"
)

// DefaultMaxAttachmentBytes 10 MiB
const DefaultMaxAttachmentBytes int64 = 10 * 1024 * 1024

var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/heic":      true,
}

// AllowedAttachmentType 判断 MIME 是否在账单附件白名单内
func AllowedAttachmentType(contentType string) bool {
	return allowedAttachmentTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// ValidateAttachment 附件可选；存在时校验大小和类型
func ValidateAttachment(att *model.Attachment, maxBytes int64) error {
	if att == nil {
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	if att.Size > maxBytes {
		return errors.AttachmentTooLarge.WithMessage(fmt.Sprintf("File must be less than %s", utils.FormatFileSize(maxBytes)))
	}
	if !AllowedAttachmentType(att.ContentType) {
		return errors.AttachmentTypeInvalid
	}
	return nil
}

// checkRange 滑块取值必须是区间内、落在步长上的整数；空值表示未填写
func checkRange(r *model.RangeSpec, raw string) error {
	if raw == "" || r == nil {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.InvalidRequest.WithMessage("Value must be a whole number")
	}
	if n < r.Min || n > r.Max {
		return errors.InvalidRequest.WithMessage(fmt.Sprintf("Value must be between %d and %d", r.Min, r.Max))
	}
	if r.Step > 0 && (n-r.Min)%r.Step != 0 {
		return errors.InvalidRequest.WithMessage(fmt.Sprintf("Value must be a multiple of %d", r.Step))
	}
	return nil
}

// validateStep 只校验当前步骤对应的字段，按输入类型分派
func validateStep(step model.StepDefinition, answers model.AnswerSet, addressConfirmed bool, maxBytes int64) error {
	switch step.Kind {
	case model.InputRange:
		return nil
	case model.InputFile:
		return ValidateAttachment(answers.Attachment, maxBytes)
	case model.InputAddress:
		if !addressConfirmed {
			return errors.AddressUnconfirmed
		}
	}

	value, ok := answers.Text(step.Field)
	if !ok {
		return errors.FieldUnknown
	}

	// 非业主直接拒绝，空值也按非业主处理
	if step.Field == model.FieldHomeOwnership && value != model.HomeOwnershipOwn {
		return errors.NotHomeowner
	}

	if strings.TrimSpace(value) == "" {
		return errors.FieldRequired
	}

	switch step.Kind {
	case model.InputEmail:
		if !utils.ValidateEmail(value) {
			return errors.EmailInvalid
		}
	case model.InputTel:
		if !utils.ValidatePhoneNumber(value) {
			return errors.PhoneInvalid
		}
	case model.InputSelect:
		if !hasOption(step, value) {
			return errors.FieldRequired
		}
	}

	return nil
}

func hasOption(step model.StepDefinition, value string) bool {
	if len(step.Options) == 0 {
		return true
	}
	for _, opt := range step.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
