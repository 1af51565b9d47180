package gateway

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"QuizFunnel/internal/model"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/snowflake"
)

// Record 记录存储 create 接口返回的一行
type Record struct {
	ID     string
	Fields map[string]any
}

// Attachment 写入记录存储的附件字段元素
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// RecordStore 表格型记录存储
type RecordStore interface {
	// Probe 读取一条记录验证连通性和凭据
	Probe(ctx context.Context) error
	Create(ctx context.Context, fields map[string]any) ([]Record, error)
}

// BlobHost 匿名文件中转，返回可直接下载的 URL
type BlobHost interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// UpstreamError 外部服务返回的结构化错误，用于归一化提交失败的文案。
// 三个方法都返回零值表示上游给了一个空错误对象
type UpstreamError interface {
	error
	ErrorType() string
	HTTPStatus() int
	ErrorMessage() string
}

// Columns 记录存储中的列名
type Columns struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	HomeOwnership string
	MonthlyBill   string
	Attachment    string
}

func DefaultColumns() Columns {
	return Columns{
		Name:          "Name",
		Email:         "Email",
		Phone:         "Phone",
		Address:       "Address",
		HomeOwnership: "Home Ownership",
		MonthlyBill:   "Monthly Bill",
		Attachment:    "PDF",
	}
}

const InvalidAttachmentMessage = "Invalid PDF format or file too large. Please try a different PDF file under 5MB."

// Config AttachmentErrors 是上游错误类型到提示文案的映射，命中即归为附件错误
type Config struct {
	Columns          Columns
	AttachmentErrors map[string]string
}

func DefaultConfig() Config {
	return Config{
		Columns:          DefaultColumns(),
		AttachmentErrors: AttachmentErrorTable([]string{"INVALID_ATTACHMENT_OBJECT"}),
	}
}

// AttachmentErrorTable 用统一文案构建附件错误映射
func AttachmentErrorTable(codes []string) map[string]string {
	table := make(map[string]string, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		table[code] = InvalidAttachmentMessage
	}
	return table
}

// Gateway 把一份完整答案写成记录存储中的一行
type Gateway struct {
	store  RecordStore
	blobs  BlobHost
	cfg    Config
	nextID func() (int64, error)
	log    *zap.Logger
}

type Option func(*Gateway)

// WithIDGenerator 替换提交流水号生成器，默认使用 snowflake
func WithIDGenerator(fn func() (int64, error)) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.nextID = fn
		}
	}
}

func New(store RecordStore, blobs BlobHost, cfg Config, opts ...Option) *Gateway {
	def := DefaultConfig()
	if cfg.Columns == (Columns{}) {
		cfg.Columns = def.Columns
	}
	if cfg.AttachmentErrors == nil {
		cfg.AttachmentErrors = def.AttachmentErrors
	}

	g := &Gateway{
		store:  store,
		blobs:  blobs,
		cfg:    cfg,
		nextID: snowflake.NextID,
		log:    logger.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit 校验 -> 连通性探测 -> 上传附件 -> 写入记录，任一步失败立即返回，不重试
func (g *Gateway) Submit(ctx context.Context, answers model.AnswerSet) (model.Receipt, error) {
	submissionID, err := g.nextID()
	if err != nil {
		// 流水号只用于日志关联，生成失败不影响提交
		g.log.Warn("Failed to generate submission id", zap.Error(err))
		submissionID = 0
	}
	log := g.log.With(zap.Int64("submission_id", submissionID))

	name := answers.FullName()
	if name == "" || strings.TrimSpace(answers.Email) == "" ||
		strings.TrimSpace(answers.Phone) == "" || strings.TrimSpace(answers.Address) == "" {
		return model.Receipt{}, errors.ValidationError
	}

	start := time.Now()
	if err := g.store.Probe(ctx); err != nil {
		log.Warn("Record store probe failed", zap.Error(err))
		return model.Receipt{}, probeError(err)
	}

	fields := g.buildFields(name, answers)

	if att := answers.Attachment; att != nil {
		url, err := g.blobs.Upload(ctx, att.Filename, att.ContentType, bytes.NewReader(att.Data))
		if err != nil {
			log.Warn("Attachment staging failed",
				zap.String("filename", att.Filename),
				zap.Int64("size", att.Size),
				zap.Error(err),
			)
			return model.Receipt{}, errors.AttachmentError
		}
		fields[g.cfg.Columns.Attachment] = []Attachment{{URL: url, Filename: att.Filename}}
	}

	records, err := g.store.Create(ctx, fields)
	if err != nil {
		normalized := g.normalize(err)
		log.Error("Failed to create record",
			zap.Error(err),
			zap.String("code", codeOf(normalized)),
		)
		return model.Receipt{}, normalized
	}
	if len(records) == 0 {
		log.Error("Record store returned no records")
		return model.Receipt{}, errors.CreateFailedError
	}

	log.Info("Lead record created",
		zap.String("record_id", records[0].ID),
		zap.Bool("attachment", answers.Attachment != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model.Receipt{RecordID: records[0].ID, SubmissionID: submissionID}, nil
}

func (g *Gateway) buildFields(name string, answers model.AnswerSet) map[string]any {
	cols := g.cfg.Columns
	ownership := "No"
	if answers.HomeOwnership == model.HomeOwnershipOwn {
		ownership = "Yes"
	}

	fields := map[string]any{
		cols.Name:          name,
		cols.Email:         strings.TrimSpace(answers.Email),
		cols.Phone:         strings.TrimSpace(answers.Phone),
		cols.Address:       strings.TrimSpace(answers.Address),
		cols.HomeOwnership: ownership,
	}
	if bill := strings.TrimSpace(answers.ElectricityBill); bill != "" {
		fields[cols.MonthlyBill] = "$" + bill
	}
	return fields
}

// probeError 探测失败统一归为连通性错误，尽量保留上游文案
func probeError(err error) error {
	up, ok := asUpstream(err)
	if !ok || isEmptyUpstream(up) {
		return errors.ConnectivityError
	}
	if msg := up.ErrorMessage(); msg != "" {
		return errors.ConnectivityError.WithMessage(msg)
	}
	return errors.ConnectivityError.WithMessage("Connection verification failed")
}

// normalize 按优先级把 create 失败映射为用户可读的错误：
// 附件错误类型 > 上游文案 > HTTP 状态码 > 兜底文案
func (g *Gateway) normalize(err error) error {
	up, ok := asUpstream(err)
	if !ok {
		return errors.CreateFailedError.WithMessage(createFallback)
	}
	if isEmptyUpstream(up) {
		return errors.UnknownError
	}
	if msg, hit := g.cfg.AttachmentErrors[up.ErrorType()]; hit {
		if msg == "" {
			msg = InvalidAttachmentMessage
		}
		return errors.AttachmentError.WithMessage(msg)
	}
	if msg := up.ErrorMessage(); msg != "" {
		return errors.CreateFailedError.WithMessage(msg)
	}
	if msg, hit := statusMessages[up.HTTPStatus()]; hit {
		return errors.CreateFailedError.WithMessage(msg)
	}
	return errors.CreateFailedError.WithMessage(createFallback)
}

const createFallback = "Failed to add contact. Please try again."

var statusMessages = map[int]string{
	403: "Permission denied. Please verify your Airtable API key and access rights.",
	404: "Table or base not found. Please verify your Airtable configuration.",
	413: "The PDF file is too large. Please try a smaller file.",
	422: "Invalid data format. Please check your input.",
}

func asUpstream(err error) (UpstreamError, bool) {
	var up UpstreamError
	if !stderrors.As(err, &up) {
		return nil, false
	}
	return up, true
}

func isEmptyUpstream(up UpstreamError) bool {
	return up.ErrorType() == "" && up.HTTPStatus() == 0 && up.ErrorMessage() == ""
}

func codeOf(err error) string {
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code
	}
	return fmt.Sprintf("%T", err)
}
