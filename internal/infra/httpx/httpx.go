package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Transport 把“UA 池 + 默认 Accept”固化为统一策略。
//
// 重试与单次超时不在这里做：它们属于 relay.Fetcher 的契约（次数、退避、每次尝试独立超时）。
// 这里只负责让每个请求带上一致的请求头。
type Transport struct {
	Base http.RoundTripper

	ua *uaPool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	r := cloneRequest(req)
	if r.Header.Get("User-Agent") == "" && t.ua != nil {
		r.Header.Set("User-Agent", t.ua.random())
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	}
	return t.Base.RoundTrip(r)
}

func cloneRequest(req *http.Request) *http.Request {
	// Clone 会复制 Header 等，避免在 RoundTripper 内部“污染”调用方的 request。
	return req.Clone(req.Context())
}

// NewRelayClient 构造访问 relay 的 HTTP client。
//
// 规则：
// - 内置 UA 池：每个请求随机 UA
// - client 本身不设总超时：每次尝试的超时由调用方的 context 控制
// - 只做连接层面的超时（TLS 握手/响应头），避免半开连接无限挂起
func NewRelayClient() *http.Client {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{
			Base: base,
			ua:   globalUA,
		},
	}
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
