package dto

import (
	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/model"
	"QuizFunnel/utils"
)

// ========== Funnel 相关 DTO ==========

// UpdateAnswerRequest 写入一个文本类字段
type UpdateAnswerRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// TypeAddressRequest 手动输入的地址，始终视为未确认
type TypeAddressRequest struct {
	Address string `json:"address"`
}

type SelectAddressRequest struct {
	PlaceID string `json:"place_id"`
}

type AddressSuggestionsQuery struct {
	Input string `query:"input"`
}

type AddressSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// AttachmentView 附件只返回文件名和大小，不回传内容
type AttachmentView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        string `json:"size"`
	Bytes       int64  `json:"bytes"`
}

type AnswersView struct {
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	HomeOwnership   string          `json:"home_ownership"`
	ElectricityBill string          `json:"electricity_bill"`
	Attachment      *AttachmentView `json:"attachment,omitempty"`
}

// FunnelSnapshot 每个问卷接口都返回的完整状态
type FunnelSnapshot struct {
	State            string               `json:"state"`
	StepIndex        int                  `json:"step_index"`
	StepCount        int                  `json:"step_count"`
	Progress         int                  `json:"progress"`
	Step             model.StepDefinition `json:"step"`
	Answers          AnswersView          `json:"answers"`
	AddressConfirmed bool                 `json:"address_confirmed"`
	Error            string               `json:"error,omitempty"`
	ErrorCode        string               `json:"error_code,omitempty"`
	Receipt          *model.Receipt       `json:"receipt,omitempty"`
	Notifications    []model.Notification `json:"notifications"`
	CSRFToken        string               `json:"csrf_token,omitempty"`
}

// NewFunnelSnapshot 进度按已到达的步骤计算，完成后为 100
func NewFunnelSnapshot(snap funnel.Snapshot, notes []model.Notification, csrfToken string) FunnelSnapshot {
	progress := 0
	if snap.StepCount > 0 {
		progress = (snap.StepIndex + 1) * 100 / snap.StepCount
	}
	if snap.State == funnel.StateComplete {
		progress = 100
	}
	if notes == nil {
		notes = []model.Notification{}
	}

	a := snap.Answers
	view := AnswersView{
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		Phone:           a.Phone,
		Address:         a.Address,
		HomeOwnership:   a.HomeOwnership,
		ElectricityBill: a.ElectricityBill,
	}
	if att := a.Attachment; att != nil {
		view.Attachment = &AttachmentView{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        utils.FormatFileSize(att.Size),
			Bytes:       att.Size,
		}
	}

	return FunnelSnapshot{
		State:            string(snap.State),
		StepIndex:        snap.StepIndex,
		StepCount:        snap.StepCount,
		Progress:         progress,
		Step:             snap.Step,
		Answers:          view,
		AddressConfirmed: snap.AddressConfirmed,
		Error:            snap.Error,
		ErrorCode:        snap.ErrorCode,
		Receipt:          snap.Receipt,
		Notifications:    notes,
		CSRFToken:        csrfToken,
	}
}
