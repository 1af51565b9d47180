// Package airtable 记录存储客户端，只实现问卷需要的连通性探测和建记录两个接口
package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/common/json"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tidwall/gjson"

	"QuizFunnel/pkg/httpclient"
)

const DefaultEndpoint = "https://api.airtable.com"

// Record create 接口返回的一行
type Record struct {
	ID          string
	CreatedTime string
	Fields      map[string]any
}

type Client struct {
	endpoint string
	apiKey   string
	baseID   string
	table    string
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

// New apiKey 和 baseID 来自配置，不能为空
func New(apiKey, baseID, table string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(baseID) == "" {
		return nil, errors.New("airtable api key/base id are not set")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("airtable table is not set")
	}

	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		baseID:   baseID,
		table:    table,
		timeout:  httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		hc, err := httpclient.New(c.timeout)
		if err != nil {
			return nil, fmt.Errorf("create airtable http client: %w", err)
		}
		c.http = hc
	}
	return c, nil
}

func (c *Client) tableURL() string {
	return c.endpoint + "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

// Probe 读一条记录，用来确认凭据和表配置可用
func (c *Client) Probe(ctx context.Context) error {
	resp, err := httpclient.Do(ctx, c.http, c.timeout, func(req *protocol.Request) {
		req.SetMethod(consts.MethodGet)
		req.SetRequestURI(c.tableURL() + "?maxRecords=1")
		c.authorize(req)
	})
	if err != nil {
		return fmt.Errorf("airtable probe: %w", err)
	}
	if !resp.OK() {
		return decodeError(resp)
	}
	return nil
}

// Create 写入一条记录。fields 是列名到值的映射
func (c *Client) Create(ctx context.Context, fields map[string]any) ([]Record, error) {
	payload := map[string]any{
		"records": []map[string]any{{"fields": fields}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode airtable records: %w", err)
	}

	resp, err := httpclient.Do(ctx, c.http, c.timeout, func(req *protocol.Request) {
		req.SetMethod(consts.MethodPost)
		req.SetRequestURI(c.tableURL())
		req.Header.SetContentTypeBytes([]byte(consts.MIMEApplicationJSON))
		req.SetBody(body)
		c.authorize(req)
	})
	if err != nil {
		return nil, fmt.Errorf("airtable create: %w", err)
	}
	if !resp.OK() {
		return nil, decodeError(resp)
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("airtable create: invalid response body")
	}

	var records []Record
	gjson.GetBytes(resp.Body, "records").ForEach(func(_, value gjson.Result) bool {
		rec := Record{
			ID:          value.Get("id").String(),
			CreatedTime: value.Get("createdTime").String(),
		}
		if f, ok := value.Get("fields").Value().(map[string]any); ok {
			rec.Fields = f
		}
		records = append(records, rec)
		return true
	})
	return records, nil
}

func (c *Client) authorize(req *protocol.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
