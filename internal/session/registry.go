package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"QuizFunnel/internal/funnel"
	"QuizFunnel/pkg/logger"
)

const DefaultIdleTimeout = 30 * time.Minute

// Factory 为新会话创建控制器，id 是分配给该会话的标识
type Factory func(id string) (*funnel.Controller, error)

// Entry 一个浏览器会话：一个控制器加一个地址联想计费 token
type Entry struct {
	ID         string
	Controller *funnel.Controller

	mu           sync.Mutex
	lastSeen     time.Time
	addressToken string
}

// AddressToken 当前地址联想会话 token，没有则生成
func (e *Entry) AddressToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.addressToken == "" {
		e.addressToken = uuid.NewString()
	}
	return e.addressToken
}

// RotateAddressToken 选中一个地址后结束本次联想会话
func (e *Entry) RotateAddressToken() {
	e.mu.Lock()
	e.addressToken = ""
	e.mu.Unlock()
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

func (e *Entry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastSeen)
}

// Registry 进程内的会话表，空闲超时后关闭控制器并移除
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	factory Factory
	idle    time.Duration
	now     func() time.Time

	onOpen  func()
	onClose func(n int)
}

type Option func(*Registry)

// WithHooks 会话创建/关闭回调，用于活跃会话指标
func WithHooks(onOpen func(), onClose func(n int)) Option {
	return func(r *Registry) {
		r.onOpen = onOpen
		r.onClose = onClose
	}
}

func NewRegistry(factory Factory, idle time.Duration, opts ...Option) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	r := &Registry{
		entries: make(map[string]*Entry),
		factory: factory,
		idle:    idle,
		now:     time.Now,
		onOpen:  func() {},
		onClose: func(int) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.onOpen == nil {
		r.onOpen = func() {}
	}
	if r.onClose == nil {
		r.onClose = func(int) {}
	}
	return r
}

// Get 查找并刷新活跃时间
func (r *Registry) Get(id string) (*Entry, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if ok {
		e.touch(r.now())
	}
	return e, ok
}

// GetOrCreate id 为空或已过期时新建会话，created 表示调用方需要回写 cookie
func (r *Registry) GetOrCreate(id string) (entry *Entry, created bool, err error) {
	if e, ok := r.Get(id); ok {
		return e, false, nil
	}

	id = uuid.NewString()
	ctrl, err := r.factory(id)
	if err != nil {
		return nil, false, err
	}

	e := &Entry{ID: id, Controller: ctrl, lastSeen: r.now()}
	r.mu.Lock()
	r.entries[e.ID] = e
	r.mu.Unlock()
	r.onOpen()

	logger.Logger.Debug("Funnel session created", zap.String("session_id", e.ID))
	return e, true, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		e.Controller.Close()
		r.onClose(1)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep 清理空闲会话，返回清理数量
func (r *Registry) Sweep() int {
	now := r.now()
	var expired []*Entry

	r.mu.Lock()
	for id, e := range r.entries {
		if e.idleSince(now) >= r.idle {
			expired = append(expired, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.Controller.Close()
	}
	if len(expired) > 0 {
		r.onClose(len(expired))
		logger.Logger.Info("Expired idle funnel sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run 周期性清理，ctx 取消后关闭所有会话
func (r *Registry) Run(ctx context.Context) {
	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close 关闭全部会话，取消所有未触发的延迟任务
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.Controller.Close()
	}
	if len(entries) > 0 {
		r.onClose(len(entries))
	}
}
