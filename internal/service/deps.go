package service

import (
	"context"
	"fmt"
	"time"

	"QuizFunnel/config"
	"QuizFunnel/internal/breaker"
	"QuizFunnel/internal/funnel"
	"QuizFunnel/internal/gateway"
	"QuizFunnel/internal/session"
	"QuizFunnel/pkg/airtable"
	"QuizFunnel/pkg/logger"
	"QuizFunnel/pkg/metrics"
	"QuizFunnel/pkg/places"
	"QuizFunnel/pkg/tmpfiles"
)

// AddressLookup 地址联想服务
type AddressLookup interface {
	Autocomplete(ctx context.Context, input, sessionToken string) ([]places.Suggestion, error)
	Details(ctx context.Context, placeID, sessionToken string) (string, error)
}

// Dependencies 服务层依赖，测试时可以替换成假实现
type Dependencies struct {
	Submitter funnel.Submitter
	Address   AddressLookup
	Registry  *session.Registry
}

// recordStore 把 airtable 客户端适配为 gateway.RecordStore
type recordStore struct {
	client *airtable.Client
}

func (s recordStore) Probe(ctx context.Context) error {
	return s.client.Probe(ctx)
}

func (s recordStore) Create(ctx context.Context, fields map[string]any) ([]gateway.Record, error) {
	records, err := s.client.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	out := make([]gateway.Record, 0, len(records))
	for _, r := range records {
		out = append(out, gateway.Record{ID: r.ID, Fields: r.Fields})
	}
	return out, nil
}

// guardedAddress 地址联想外面套一层熔断
type guardedAddress struct {
	lookup  AddressLookup
	breaker *breaker.CircuitBreaker
}

func (g guardedAddress) Autocomplete(ctx context.Context, input, sessionToken string) ([]places.Suggestion, error) {
	var out []places.Suggestion
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.lookup.Autocomplete(ctx, input, sessionToken)
		return err
	})
	return out, err
}

func (g guardedAddress) Details(ctx context.Context, placeID, sessionToken string) (string, error) {
	var formatted string
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		formatted, err = g.lookup.Details(ctx, placeID, sessionToken)
		return err
	})
	return formatted, err
}

// NewDependencies 按配置组装外部客户端、提交网关和会话表
func NewDependencies(cfg config.Config) (Dependencies, error) {
	timeout := time.Duration(cfg.HTTPClientTimeoutSeconds) * time.Second

	store, err := airtable.New(cfg.AirtableAPIKey, cfg.AirtableBaseID, cfg.AirtableTable,
		airtable.WithEndpoint(cfg.AirtableEndpoint),
		airtable.WithTimeout(timeout),
	)
	if err != nil {
		return Dependencies{}, fmt.Errorf("init airtable client: %w", err)
	}

	blobs, err := tmpfiles.New(
		tmpfiles.WithUploadURL(cfg.TmpfilesUploadURL),
		tmpfiles.WithPrefixes(cfg.TmpfilesViewPrefix, cfg.TmpfilesDownloadPrefix),
		tmpfiles.WithTimeout(timeout),
	)
	if err != nil {
		return Dependencies{}, fmt.Errorf("init tmpfiles client: %w", err)
	}

	address, err := places.New(cfg.PlacesAPIKey,
		places.WithEndpoint(cfg.PlacesEndpoint),
		places.WithCountry(cfg.AddressCountry),
		places.WithTimeout(timeout),
	)
	if err != nil {
		return Dependencies{}, fmt.Errorf("init places client: %w", err)
	}

	gw := gateway.New(recordStore{client: store}, blobs, gateway.Config{
		Columns:          gateway.DefaultColumns(),
		AttachmentErrors: gateway.AttachmentErrorTable(cfg.AttachmentErrorCodes),
	})

	m := metrics.GetMetrics()
	factory := func(id string) (*funnel.Controller, error) {
		opts := []funnel.Option{
			funnel.WithLogger(logger.WithSession(id)),
			funnel.WithDisqualifyDelay(time.Duration(cfg.DisqualifyDelayMs) * time.Millisecond),
			funnel.WithMaxAttachmentBytes(cfg.MaxAttachmentBytes),
		}
		if m != nil {
			opts = append(opts, funnel.WithObserver(m))
		}
		return funnel.New(funnel.DefaultSteps(), gw, opts...)
	}

	var regOpts []session.Option
	if m != nil {
		regOpts = append(regOpts, session.WithHooks(m.SessionOpened, m.SessionClosed))
	}
	registry := session.NewRegistry(factory, time.Duration(cfg.SessionIdleMinutes)*time.Minute, regOpts...)

	return Dependencies{
		Submitter: gw,
		Address: guardedAddress{
			lookup:  address,
			breaker: breaker.New("places", cfg.AddressBreakerFailures, time.Duration(cfg.AddressBreakerResetSeconds)*time.Second),
		},
		Registry: registry,
	}, nil
}
