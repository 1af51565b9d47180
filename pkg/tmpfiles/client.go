// Package tmpfiles 匿名文件中转，把附件换成记录存储可以抓取的公开下载链接
package tmpfiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tidwall/gjson"

	"QuizFunnel/pkg/httpclient"
)

const (
	DefaultUploadURL      = "https://tmpfiles.org/api/v1/upload"
	DefaultViewPrefix     = "https://tmpfiles.org/"
	DefaultDownloadPrefix = "https://tmpfiles.org/dl/"
)

var ErrMissingURL = errors.New("tmpfiles: response has no data.url")

type Client struct {
	uploadURL      string
	viewPrefix     string
	downloadPrefix string
	timeout        time.Duration
	http           *client.Client
}

type Option func(*Client)

func WithUploadURL(u string) Option {
	return func(c *Client) {
		if strings.TrimSpace(u) != "" {
			c.uploadURL = u
		}
	}
}

// WithPrefixes 响应里的查看链接前缀替换为下载前缀
func WithPrefixes(view, download string) Option {
	return func(c *Client) {
		if view != "" && download != "" {
			c.viewPrefix = view
			c.downloadPrefix = download
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(hc *client.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(opts ...Option) (*Client, error) {
	c := &Client{
		uploadURL:      DefaultUploadURL,
		viewPrefix:     DefaultViewPrefix,
		downloadPrefix: DefaultDownloadPrefix,
		timeout:        httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		hc, err := httpclient.New(c.timeout)
		if err != nil {
			return nil, fmt.Errorf("create tmpfiles http client: %w", err)
		}
		c.http = hc
	}
	return c, nil
}

// Upload multipart 上传到 file 字段，分段带上文件自身的 Content-Type，返回直链
func (c *Client) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	payload, formType, err := encodeFile(filename, contentType, body)
	if err != nil {
		return "", fmt.Errorf("tmpfiles upload: %w", err)
	}

	resp, err := httpclient.Do(ctx, c.http, c.timeout, func(req *protocol.Request) {
		req.SetMethod(consts.MethodPost)
		req.SetRequestURI(c.uploadURL)
		req.Header.SetContentTypeBytes([]byte(formType))
		req.SetBody(payload)
	})
	if err != nil {
		return "", fmt.Errorf("tmpfiles upload: %w", err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("tmpfiles upload: status %d", resp.StatusCode)
	}

	viewURL := gjson.GetBytes(resp.Body, "data.url").String()
	if viewURL == "" {
		return "", ErrMissingURL
	}
	return c.DownloadURL(viewURL), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeFile hertz 的 SetFileReader 不支持指定分段类型，这里自己拼 multipart
func encodeFile(filename, contentType string, body io.Reader) ([]byte, string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// DownloadURL 只替换第一次出现的查看前缀
func (c *Client) DownloadURL(viewURL string) string {
	return strings.Replace(viewURL, c.viewPrefix, c.downloadPrefix, 1)
}
