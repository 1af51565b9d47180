package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/model"
	"QuizFunnel/internal/model/dto"
	"QuizFunnel/internal/session"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
)

var (
	funnelService  *FunnelService
	contactService *ContactService
	initOnce       sync.Once
)

// Init 装配全局服务实例，只生效一次
func Init(deps Dependencies) {
	initOnce.Do(func() {
		funnelService = NewFunnelService(deps.Registry, deps.Address)
		contactService = NewContactService(deps.Submitter)
	})
}

func Funnel() *FunnelService {
	return funnelService
}

func Contact() *ContactService {
	return contactService
}

// FunnelService 会话查找 + 控制器操作 + 地址联想
type FunnelService struct {
	registry *session.Registry
	address  AddressLookup
	steps    []model.StepDefinition
}

func NewFunnelService(registry *session.Registry, address AddressLookup) *FunnelService {
	return &FunnelService{
		registry: registry,
		address:  address,
		steps:    funnel.DefaultSteps(),
	}
}

func (s *FunnelService) Steps() []model.StepDefinition {
	return s.steps
}

// Session 按 cookie 中的 id 取会话，不存在则新建
func (s *FunnelService) Session(id string) (*session.Entry, bool, error) {
	return s.registry.GetOrCreate(id)
}

// View 渲染快照并取走待展示的提示
func (s *FunnelService) View(entry *session.Entry, csrfToken string) dto.FunnelSnapshot {
	ctrl := entry.Controller
	return dto.NewFunnelSnapshot(ctrl.Snapshot(), ctrl.DrainNotifications(), csrfToken)
}

func (s *FunnelService) UpdateAnswer(ctx context.Context, entry *session.Entry, req dto.UpdateAnswerRequest) error {
	field := model.Field(strings.TrimSpace(req.Field))
	if field == model.FieldAddress {
		return s.TypeAddress(ctx, entry, req.Value)
	}
	return entry.Controller.UpdateField(field, req.Value)
}

// TypeAddress 手动输入的地址不算确认
func (s *FunnelService) TypeAddress(ctx context.Context, entry *session.Entry, text string) error {
	return entry.Controller.SetAddress(text, false)
}

// SuggestAddresses 地址联想，上游失败统一转成 AddressLookupFailed
func (s *FunnelService) SuggestAddresses(ctx context.Context, entry *session.Entry, input string) ([]dto.AddressSuggestion, error) {
	suggestions, err := s.address.Autocomplete(ctx, input, entry.AddressToken())
	if err != nil {
		logger.WithSession(entry.ID).Warn("Address autocomplete failed",
			zap.Error(err),
		)
		return nil, errors.AddressLookupFailed
	}

	out := make([]dto.AddressSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, dto.AddressSuggestion{PlaceID: sg.PlaceID, Description: sg.Description})
	}
	return out, nil
}

// SelectAddress 选中联想结果，取标准地址并标记为已确认
func (s *FunnelService) SelectAddress(ctx context.Context, entry *session.Entry, placeID string) error {
	if strings.TrimSpace(placeID) == "" {
		return errors.InvalidRequest.WithMessage("place_id is required")
	}

	formatted, err := s.address.Details(ctx, placeID, entry.AddressToken())
	if err != nil {
		logger.WithSession(entry.ID).Warn("Address details lookup failed",
			zap.Error(err),
		)
		return errors.AddressLookupFailed
	}
	entry.RotateAddressToken()

	return entry.Controller.SetAddress(formatted, true)
}

func (s *FunnelService) Attach(ctx context.Context, entry *session.Entry, att *model.Attachment) error {
	return entry.Controller.SetAttachment(att)
}

func (s *FunnelService) Detach(ctx context.Context, entry *session.Entry) error {
	return entry.Controller.ClearAttachment()
}

// Advance 校验当前步骤并前进，最后一步会同步提交
func (s *FunnelService) Advance(ctx context.Context, entry *session.Entry) error {
	err := entry.Controller.Advance(ctx)
	if err != nil && !errors.IsFieldError(err) {
		logger.WithSession(entry.ID).Warn("Funnel submission failed",
			zap.Error(err),
		)
	}
	return err
}

// Reset 提交进行中时返回 SubmissionInProgress
func (s *FunnelService) Reset(ctx context.Context, entry *session.Entry) error {
	return entry.Controller.Reset()
}
