package httpclient

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
)

const DefaultTimeout = 15 * time.Second

// Response 已经拷贝出来的响应，调用方可以在请求对象释放后继续使用
type Response struct {
	StatusCode int
	Body       []byte
}

// OK 是否为 2xx
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New 创建出站 HTTP 客户端
func New(timeout time.Duration) (*client.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
}

// Do 从池中取请求/响应对象，build 填充请求后发送
func Do(ctx context.Context, c *client.Client, timeout time.Duration, build func(req *protocol.Request)) (Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	build(req)

	if err := c.DoTimeout(ctx, req, resp, timeout); err != nil {
		return Response{}, err
	}

	return Response{
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
	}, nil
}
