// Package fetch 从本地文件、HTTP(S) 或 S3 获取配置片段，远程位置按策略重试
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jimyag/splunk-inventory/pkg/errors"
	"github.com/jimyag/splunk-inventory/pkg/logger"
)

// 位置协议
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"
)

// Request 一次获取请求
type Request struct {
	Location string
	Headers  map[string]string
	Timeout  time.Duration
	Verify   bool
	Policy   RetryPolicy
	// Bucket 来源所属的优先级分组（baked/env/host），用于日志和指标
	Bucket string
}

// Observer 接收每次尝试的结果
type Observer interface {
	ObserveFetch(bucket, scheme string, err error)
}

// ClientFactory 按超时和 TLS 校验开关构造 HTTP 客户端
type ClientFactory func(timeout time.Duration, verify bool) *resty.Client

// DefaultClientFactory 构造 resty 客户端，重试由 Retryer 负责，客户端自身不重试
func DefaultClientFactory(timeout time.Duration, verify bool) *resty.Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	if !verify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}
	return client
}

// Fetcher 配置片段获取器
type Fetcher struct {
	clients    ClientFactory
	s3         ObjectGetter
	s3Settings S3Settings
	sleep      SleepFunc
	observer   Observer
	log        zerolog.Logger
}

// Option Fetcher 选项
type Option func(*Fetcher)

// WithClientFactory 替换 HTTP 客户端构造方式
func WithClientFactory(f ClientFactory) Option {
	return func(ft *Fetcher) { ft.clients = f }
}

// WithObjectGetter 指定 S3 客户端，未指定时首次遇到 s3:// 位置再按 S3Settings 创建
func WithObjectGetter(g ObjectGetter) Option {
	return func(ft *Fetcher) { ft.s3 = g }
}

// WithS3Settings 设置 S3 连接参数
func WithS3Settings(s S3Settings) Option {
	return func(ft *Fetcher) { ft.s3Settings = s }
}

// WithSleep 替换重试间隔的等待函数
func WithSleep(s SleepFunc) Option {
	return func(ft *Fetcher) { ft.sleep = s }
}

// WithObserver 设置指标观察者
func WithObserver(o Observer) Option {
	return func(ft *Fetcher) { ft.observer = o }
}

// WithLogger 设置日志实例
func WithLogger(l zerolog.Logger) Option {
	return func(ft *Fetcher) { ft.log = l }
}

// New 创建 Fetcher
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		clients: DefaultClientFactory,
		log:     logger.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Scheme 返回位置的协议，没有协议前缀的视为本地文件
func Scheme(location string) string {
	idx := strings.Index(location, "://")
	if idx <= 0 {
		return SchemeFile
	}
	return strings.ToLower(location[:idx])
}

// Fetch 获取位置内容
// 空白位置返回 nil, nil；本地文件只读取一次；远程位置按 Policy 重试，耗尽后返回 FetchError
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, nil
	}

	scheme := Scheme(location)
	switch scheme {
	case SchemeFile:
		data, err := readFile(location)
		f.observe(req.Bucket, scheme, err)
		if err != nil {
			return nil, errors.NewFetchError(location, 1, err)
		}
		return data, nil
	case SchemeHTTP, SchemeHTTPS, SchemeS3:
	default:
		return nil, errors.NewFetchError(location, 0, fmt.Errorf("unsupported scheme %q", scheme))
	}

	retryer := NewRetryer(req.Policy, f.sleep, func(attempt int, err error, delay time.Duration) {
		f.log.Warn().Err(err).Str("location", location).Str("bucket", req.Bucket).
			Msgf("URL request #%d failed, sleeping %s and retrying", attempt, delay)
	})

	var body []byte
	attempts, err := retryer.Do(ctx, func(ctx context.Context, attempt int) error {
		var err error
		if scheme == SchemeS3 {
			body, err = f.getObject(ctx, location, req.Timeout)
		} else {
			body, err = f.get(ctx, location, req)
		}
		f.observe(req.Bucket, scheme, err)
		return err
	})
	if err != nil {
		return nil, errors.NewFetchError(location, attempts, err)
	}
	f.log.Debug().Str("location", location).Int("attempts", attempts).Msg("fetched config fragment")
	return body, nil
}

func (f *Fetcher) observe(bucket, scheme string, err error) {
	if f.observer != nil {
		f.observer.ObserveFetch(bucket, scheme, err)
	}
}

func readFile(location string) ([]byte, error) {
	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string, req Request) ([]byte, error) {
	resp, err := f.clients(req.Timeout, req.Verify).R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		Get(url)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "GET %s", url)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}
