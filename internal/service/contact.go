package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/model"
	"QuizFunnel/internal/model/dto"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/utils"
)

// MaxContactPDFBytes 联系表单附件上限 5 MiB
const MaxContactPDFBytes int64 = 5 * 1024 * 1024

const ContactSuccessMessage = "Contact added successfully!"

// FieldErrors 联系表单逐字段的校验结果
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return errors.ValidationError.Message }

func (f FieldErrors) Unwrap() error { return errors.ValidationError }

// Details 转为响应里的 details
func (f FieldErrors) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

type ContactService struct {
	submitter funnel.Submitter
}

func NewContactService(submitter funnel.Submitter) *ContactService {
	return &ContactService{submitter: submitter}
}

// ValidateContactForm 一次性返回所有字段错误
func ValidateContactForm(req dto.ContactFormRequest, pdf *model.Attachment) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "Name is required"
	}

	if strings.TrimSpace(req.Email) == "" {
		errs["email"] = "Email is required"
	} else if !utils.ValidateEmail(req.Email) {
		errs["email"] = "Please enter a valid email address"
	}

	if strings.TrimSpace(req.Phone) == "" {
		errs["phone"] = "Phone number is required"
	} else if !utils.ValidateContactPhone(req.Phone) {
		errs["phone"] = "Please enter a valid phone number"
	}

	if strings.TrimSpace(req.Address) == "" {
		errs["address"] = "Address is required"
	}

	if pdf != nil {
		switch {
		case strings.ToLower(strings.TrimSpace(pdf.ContentType)) != "application/pdf":
			errs["pdf"] = "Please upload a PDF file"
		case pdf.Size > MaxContactPDFBytes:
			errs["pdf"] = "PDF file size must be less than 5MB"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Submit 校验后通过同一个提交网关写入，住房状态记为 No，不带电费
func (s *ContactService) Submit(ctx context.Context, req dto.ContactFormRequest, pdf *model.Attachment) (model.Receipt, error) {
	if errs := ValidateContactForm(req, pdf); errs != nil {
		return model.Receipt{}, errs
	}

	answers := model.AnswerSet{
		FirstName:  strings.TrimSpace(req.Name),
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		Attachment: pdf,
	}

	receipt, err := s.submitter.Submit(ctx, answers)
	if err != nil {
		logger.Logger.Warn("Contact form submission failed", zap.Error(err))
		return model.Receipt{}, err
	}
	return receipt, nil
}
