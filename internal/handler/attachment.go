package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"

	"QuizFunnel/config"
	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/model"
	"QuizFunnel/pkg/errors"
	"QuizFunnel/utils"
)

// 嗅探不出来的类型按扩展名兜底
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".heic": "image/heic",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// readAttachment 读取 multipart 文件。超限的文件不读内容，直接交给控制器按大小拒绝
func readAttachment(c *app.RequestContext, field string) (*model.Attachment, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, errors.InvalidRequest.WithMessage("No file uploaded")
	}

	maxBytes := config.Cfg.MaxAttachmentBytes
	if maxBytes <= 0 {
		maxBytes = funnel.DefaultMaxAttachmentBytes
	}

	att := &model.Attachment{
		Filename:    filepath.Base(fh.Filename),
		ContentType: strings.TrimSpace(fh.Header.Get("Content-Type")),
		Size:        fh.Size,
	}
	if fh.Size > maxBytes {
		return att, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.AttachmentError
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, errors.AttachmentError
	}
	att.Data = data
	att.Size = int64(len(data))
	att.ContentType = detectContentType(att.Filename, att.ContentType, data)
	return att, nil
}

func detectContentType(filename, declared string, data []byte) string {
	declared = strings.ToLower(declared)
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if sniffed := http.DetectContentType(data); sniffed != "application/octet-stream" {
		if i := strings.Index(sniffed, ";"); i >= 0 {
			sniffed = sniffed[:i]
		}
		return sniffed
	}
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// attachmentLabel 日志里的附件描述，不含内容
func attachmentLabel(att *model.Attachment) string {
	if att == nil {
		return ""
	}
	return att.Filename + " (" + utils.FormatFileSize(att.Size) + ")"
}
