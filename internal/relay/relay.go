// Package relay 通过固定的 relay 端点抓取目标 URL 的原始文本。
//
// 调用方永远不直接访问源站：目标 URL 作为 url 查询参数交给 relay，relay 是唯一的网络对端。
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"
)

const (
	DefaultTimeout     = 12 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoffUnit = 800 * time.Millisecond

	// 表格导出通常只有几百 KB；上限只用于防止异常响应把内存吃满。
	maxBodyBytes = 32 << 20
)

// Fetcher 实现“单次超时 + 有界重试 + 线性退避”的抓取策略。
//
// 约束：
// - 每次尝试有独立的超时；超时只取消该次请求，不终止整个重试序列
// - 最多 MaxAttempts 次尝试；第 n 次失败后等待 n × BackoffUnit 再重试
// - 全部失败后返回 *ExhaustedRetriesError（包裹最后一次的错误）；结果从不缓存
// - 调用方 ctx 取消时立即停止
type Fetcher struct {
	client *http.Client
	base   *url.URL
	log    *slog.Logger
	timer  retry.Timer

	timeout     time.Duration
	maxAttempts int
	backoffUnit time.Duration
	maxBody     int64
}

type Option func(*Fetcher)

func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

func WithBackoffUnit(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoffUnit = d
		}
	}
}

// WithTimer 替换退避等待使用的计时器（测试用：记录延迟而不真正 sleep）。
func WithTimer(t retry.Timer) Option {
	return func(f *Fetcher) { f.timer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// New 构造 Fetcher。relayBase 必须是绝对 http(s) URL。
func New(relayBase string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimSpace(relayBase))
	if err != nil {
		return nil, fmt.Errorf("relay 地址无效：%w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("relay 地址必须是 http/https 绝对 URL：%q", relayBase)
	}

	f := &Fetcher{
		client:      http.DefaultClient,
		base:        u,
		log:         slog.Default(),
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		backoffUnit: DefaultBackoffUnit,
		maxBody:     maxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With("component", "relay")
	return f, nil
}

// RelayURL 把目标 URL 编码为 relay 的 url 查询参数。
// relayBase 上已有的其他查询参数会被保留。
func (f *Fetcher) RelayURL(target string) string {
	u := *f.base
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch 通过 relay 获取 target 的原始文本。
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	reqURL := f.RelayURL(target)

	attempt := 0
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(f.maxAttempts)),
		// 线性退避：第 n 次失败后等待 n × unit（800ms, 1600ms, ...）。
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(attempt) * f.backoffUnit
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(_ uint, err error) {
			f.log.Debug("relay 尝试失败", "target", target, "attempt", attempt, "max_attempts", f.maxAttempts, "err", err)
		}),
	}
	if f.timer != nil {
		opts = append(opts, retry.WithTimer(f.timer))
	}

	body, err := retry.DoWithData(func() (string, error) {
		attempt++
		return f.once(ctx, reqURL)
	}, opts...)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		// 调用方取消：不是“重试耗尽”，原样交给上层。
		return "", fmt.Errorf("relay: 已取消（完成 %d 次尝试）：%w", attempt, ctx.Err())
	}
	return "", &ExhaustedRetriesError{URL: target, Attempts: attempt, Err: err}
}

// once 执行一次尝试（带独立超时）。
func (f *Fetcher) once(ctx context.Context, reqURL string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.attemptErr(ctx, actx, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &HTTPStatusError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	// 多读一个字节用于判断是否超限：截断的表格会让最后一行被当作完整数据。
	b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", f.attemptErr(ctx, actx, reqURL, err)
	}
	if int64(len(b)) > f.maxBody {
		return "", &BodyTooLargeError{URL: reqURL, Limit: f.maxBody}
	}
	if be := detectBlocked(reqURL, b); be != nil {
		return "", be
	}
	return string(b), nil
}

// attemptErr 把“本次尝试超时”与其他网络错误区分开。
func (f *Fetcher) attemptErr(parent, attempt context.Context, reqURL string, err error) error {
	if parent.Err() == nil && errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: reqURL, Timeout: f.timeout}
	}
	return err
}

// detectBlocked 识别“200 但内容是 HTML 页面”的情况。
//
// 只看内容，不看 Content-Type：relay 可能把 CSV 也标成 text/html。
func detectBlocked(reqURL string, body []byte) *BlockedError {
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(head)
	if !bytes.HasPrefix(head, []byte("<!doctype html")) && !bytes.HasPrefix(head, []byte("<html")) {
		return nil
	}

	be := &BlockedError{URL: reqURL}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return be
	}
	be.Reason = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	return be
}
