// Package places 地址联想服务：按国家限制的自动补全 + 地点详情
package places

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"QuizFunnel/pkg/httpclient"
)

const (
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/place"
	DefaultCountry  = "au"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

var ErrNotConfigured = errors.New("places: api key is not set")

// Suggestion 一条联想结果
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// StatusError 上游返回了非 OK 的 status
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places: %s: %s", e.Status, e.Message)
	}
	return "places: " + e.Status
}

type Client struct {
	endpoint string
	apiKey   string
	country  string
	timeout  time.Duration
	http     *client.Client
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if strings.TrimSpace(endpoint) != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

func WithCountry(country string) Option {
	return func(c *Client) {
		if strings.TrimSpace(country) != "" {
			c.country = strings.ToLower(strings.TrimSpace(country))
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

func New(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		country:  DefaultCountry,
		timeout:  httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		hc, err := httpclient.New(c.timeout)
		if err != nil {
			return nil, fmt.Errorf("create places http client: %w", err)
		}
		c.http = hc
	}
	return c, nil
}

// Configured 没有 key 时地址步骤无法确认，调用方应提前提示
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// NewSessionToken 一次输入到选中算一个计费会话
func NewSessionToken() string {
	return uuid.NewString()
}

// Autocomplete 空输入直接返回空结果，不发请求
func (c *Client) Autocomplete(ctx context.Context, input, sessionToken string) ([]Suggestion, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("input", input)
	q.Set("types", "address")
	q.Set("components", "country:"+c.country)
	if sessionToken != "" {
		q.Set("sessiontoken", sessionToken)
	}

	body, err := c.get(ctx, "/autocomplete/json", q)
	if err != nil {
		return nil, err
	}

	status := gjson.GetBytes(body, "status").String()
	if status == statusZeroResults {
		return nil, nil
	}
	if status != statusOK {
		return nil, &StatusError{Status: status, Message: gjson.GetBytes(body, "error_message").String()}
	}

	var out []Suggestion
	gjson.GetBytes(body, "predictions").ForEach(func(_, p gjson.Result) bool {
		out = append(out, Suggestion{
			PlaceID:     p.Get("place_id").String(),
			Description: p.Get("description").String(),
		})
		return true
	})
	return out, nil
}

// Details 返回选中地点的标准化地址
func (c *Client) Details(ctx context.Context, placeID, sessionToken string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(placeID) == "" {
		return "", errors.New("places: empty place id")
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "formatted_address")
	if sessionToken != "" {
		q.Set("sessiontoken", sessionToken)
	}

	body, err := c.get(ctx, "/details/json", q)
	if err != nil {
		return "", err
	}

	status := gjson.GetBytes(body, "status").String()
	if status != statusOK {
		return "", &StatusError{Status: status, Message: gjson.GetBytes(body, "error_message").String()}
	}
	addr := gjson.GetBytes(body, "result.formatted_address").String()
	if addr == "" {
		return "", &StatusError{Status: status, Message: "missing formatted_address"}
	}
	return addr, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	q.Set("key", c.apiKey)
	resp, err := httpclient.Do(ctx, c.http, c.timeout, func(req *protocol.Request) {
		req.SetMethod(consts.MethodGet)
		req.SetRequestURI(c.endpoint + path + "?" + q.Encode())
	})
	if err != nil {
		return nil, fmt.Errorf("places %s: %w", path, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("places %s: status %d", path, resp.StatusCode)
	}
	return resp.Body, nil
}
