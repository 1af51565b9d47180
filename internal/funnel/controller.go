package funnel

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"QuizFunnel/internal/model"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/utils"
)

const (
	// DefaultDisqualifyDelay 让用户先看到自己的选择再弹出提示
	DefaultDisqualifyDelay = 500 * time.Millisecond

	disqualifyMessage = "Sorry, you must be a homeowner to qualify for solar rebates"
	successMessage    = "Thank you! We'll be in touch soon with your solar savings estimate."
	submitFallback    = "Failed to submit. Please try again."
)

type State string

const (
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateComplete   State = "complete"
)

// Submitter 把完整答案写入外部记录存储
type Submitter interface {
	Submit(ctx context.Context, answers model.AnswerSet) (model.Receipt, error)
}

// Snapshot 某一时刻的只读会话状态
type Snapshot struct {
	State            State
	StepIndex        int
	StepCount        int
	Step             model.StepDefinition
	Answers          model.AnswerSet
	AddressConfirmed bool
	Error            string
	ErrorCode        string
	Receipt          *model.Receipt
}

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

func WithDisqualifyDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.disqualifyDelay = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithMaxAttachmentBytes(n int64) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxAttachmentBytes = n
		}
	}
}

// WithLogger 附带会话字段的 logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller 问卷状态机：Active(step) -> Submitting -> Complete，
// 提交失败回到 Active(last) 并带上错误信息
type Controller struct {
	mu sync.Mutex

	steps              []model.StepDefinition
	submitter          Submitter
	scheduler          Scheduler
	observer           Observer
	disqualifyDelay    time.Duration
	maxAttachmentBytes int64
	log                *zap.Logger

	answers          model.AnswerSet
	step             int
	state            State
	lastErr          error
	addressConfirmed bool
	receipt          *model.Receipt
	notifications    []model.Notification

	// generation 在 reset/close 时递增，过期的定时任务和提交结果据此丢弃
	generation       uint64
	disqualifySeq    uint64
	cancelDisqualify func()
	closed           bool
}

func New(steps []model.StepDefinition, submitter Submitter, opts ...Option) (*Controller, error) {
	if len(steps) == 0 {
		return nil, stderrors.New("funnel: at least one step is required")
	}
	if submitter == nil {
		return nil, stderrors.New("funnel: submitter is required")
	}

	c := &Controller{
		steps:              steps,
		submitter:          submitter,
		scheduler:          timerScheduler{},
		observer:           nopObserver{},
		disqualifyDelay:    DefaultDisqualifyDelay,
		maxAttachmentBytes: DefaultMaxAttachmentBytes,
		log:                logger.Logger,
		answers:            model.NewAnswerSet(),
		state:              StateActive,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.observer.StepReached(0, string(steps[0].Field))
	return c, nil
}

// Steps 返回步骤定义（只读）
func (c *Controller) Steps() []model.StepDefinition {
	return c.steps
}

// UpdateField 写入一个文本类字段。phone 会先格式化；
// homeOwnership 选了非 own 时延迟清空并提示
func (c *Controller) UpdateField(field model.Field, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}

	switch field {
	case model.FieldAttachment:
		return errors.FieldUnknown
	case model.FieldAddress:
		c.answers.Address = raw
		c.addressConfirmed = false
	case model.FieldPhone:
		c.answers.Phone = utils.FormatPhoneNumber(raw)
	case model.FieldHomeOwnership:
		if raw != "" && !hasOption(c.stepFor(field), raw) {
			return errors.InvalidRequest.WithMessage("Unknown option")
		}
		c.answers.HomeOwnership = raw
		c.cancelDisqualifyLocked()
		if raw != "" && raw != model.HomeOwnershipOwn {
			c.scheduleDisqualifyLocked(raw)
		}
	case model.FieldElectricityBill:
		if err := checkRange(c.stepFor(field).Range, raw); err != nil {
			return err
		}
		c.answers.ElectricityBill = raw
	default:
		if !c.answers.SetText(field, raw) {
			return errors.FieldUnknown
		}
	}

	c.lastErr = nil
	return nil
}

// SetAddress confirmed=true 表示来自地址联想的选中项，手输文本为 false
func (c *Controller) SetAddress(formatted string, confirmed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}

	c.answers.Address = formatted
	c.addressConfirmed = confirmed
	c.lastErr = nil
	return nil
}

// SetAttachment 选择文件时立即校验，不合格的文件不会被保存
func (c *Controller) SetAttachment(att *model.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}

	if err := ValidateAttachment(att, c.maxAttachmentBytes); err != nil {
		c.lastErr = err
		return err
	}

	c.answers.Attachment = att
	c.lastErr = nil
	return nil
}

func (c *Controller) ClearAttachment() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}

	c.answers.Attachment = nil
	c.lastErr = nil
	return nil
}

// Advance 校验当前步骤；通过则前进一步，最后一步触发提交。
// Submitting / Complete 状态下调用没有任何效果
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StateActive {
		c.mu.Unlock()
		return nil
	}

	current := c.steps[c.step]
	if err := validateStep(current, c.answers, c.addressConfirmed, c.maxAttachmentBytes); err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.log.Debug("Step validation failed",
			zap.Int("step", c.step),
			zap.String("field", string(current.Field)),
			zap.Error(err),
		)
		return err
	}
	c.lastErr = nil

	if c.step < len(c.steps)-1 {
		c.step++
		c.observer.StepReached(c.step, string(c.steps[c.step].Field))
		c.mu.Unlock()
		return nil
	}

	c.state = StateSubmitting
	gen := c.generation
	answers := c.answers
	c.mu.Unlock()

	start := time.Now()
	receipt, err := c.submitter.Submit(ctx, answers)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.observer.SubmissionFinished(err, elapsed)

	if c.generation != gen {
		// 提交期间会话被关闭，结果作废
		c.log.Info("Discarding submission result for closed session", zap.Error(err))
		return nil
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = submitFallback
		}
		c.state = StateActive
		c.lastErr = err
		c.pushLocked(model.NotifyError, msg)
		return err
	}

	c.state = StateComplete
	c.receipt = &receipt
	c.pushLocked(model.NotifySuccess, successMessage)
	return nil
}

// Reset 恢复默认答案并回到第 0 步；提交进行中时拒绝，
// 保证同一会话最多只有一个提交在途
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return errors.SubmissionInProgress
	}

	c.cancelDisqualifyLocked()
	c.generation++
	c.answers = model.NewAnswerSet()
	c.step = 0
	c.state = StateActive
	c.lastErr = nil
	c.addressConfirmed = false
	c.receipt = nil
	c.notifications = nil
	c.observer.StepReached(0, string(c.steps[0].Field))
	return nil
}

// Close 会话结束时调用，取消所有未触发的延迟任务
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelDisqualifyLocked()
	c.generation++
	c.closed = true
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:            c.state,
		StepIndex:        c.step,
		StepCount:        len(c.steps),
		Step:             c.steps[c.step],
		Answers:          c.answers,
		AddressConfirmed: c.addressConfirmed,
		Receipt:          c.receipt,
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
		var def errors.Definition
		if stderrors.As(c.lastErr, &def) {
			snap.ErrorCode = def.Code
		}
		if snap.Error == "" {
			snap.Error = submitFallback
		}
	}
	return snap
}

// DrainNotifications 取出并清空待展示的提示
func (c *Controller) DrainNotifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.notifications
	c.notifications = nil
	return out
}

func (c *Controller) editableLocked() error {
	switch c.state {
	case StateSubmitting:
		return errors.SubmissionInProgress
	case StateComplete:
		return errors.FunnelComplete
	}
	return nil
}

func (c *Controller) stepFor(field model.Field) model.StepDefinition {
	for _, s := range c.steps {
		if s.Field == field {
			return s
		}
	}
	return model.StepDefinition{Field: field}
}

func (c *Controller) pushLocked(level model.NotificationLevel, msg string) {
	c.notifications = append(c.notifications, model.Notification{Level: level, Message: msg})
}

func (c *Controller) scheduleDisqualifyLocked(choice string) {
	if c.closed {
		return
	}
	c.disqualifySeq++
	gen, seq := c.generation, c.disqualifySeq
	c.cancelDisqualify = c.scheduler.AfterFunc(c.disqualifyDelay, func() {
		c.fireDisqualify(gen, seq, choice)
	})
}

func (c *Controller) cancelDisqualifyLocked() {
	if c.cancelDisqualify != nil {
		c.cancelDisqualify()
		c.cancelDisqualify = nil
	}
	c.disqualifySeq++
}

func (c *Controller) fireDisqualify(gen, seq uint64, choice string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.generation != gen || c.disqualifySeq != seq {
		return
	}
	c.cancelDisqualify = nil
	c.answers.HomeOwnership = ""
	c.pushLocked(model.NotifyError, disqualifyMessage)
	c.observer.Disqualified(choice)
}
