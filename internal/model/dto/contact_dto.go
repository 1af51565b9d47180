package dto

import "QuizFunnel/internal/model"

// ========== Contact 相关 DTO ==========
// 单页联系表单，multipart 提交，附件字段为 pdf

// ContactFormRequest 联系表单字段
type ContactFormRequest struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Phone   string `form:"phone" json:"phone"`
	Address string `form:"address" json:"address"`
}

// ContactFormResponse 提交成功后的回执
type ContactFormResponse struct {
	RecordID     string `json:"record_id"`
	SubmissionID int64  `json:"submission_id,string"`
	Message      string `json:"message"`
}

func NewContactFormResponse(r model.Receipt, message string) ContactFormResponse {
	return ContactFormResponse{RecordID: r.RecordID, SubmissionID: r.SubmissionID, Message: message}
}
