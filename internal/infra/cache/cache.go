package cache

import (
	"sync"
	"time"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// DefaultTTL 是行缓存的有效期。
const DefaultTTL = 5 * time.Minute

// Entry 是某张表最近一次成功解析的结果。
type Entry struct {
	Rows       []domain.Row
	CapturedAt time.Time
}

// Store 是按 key 存放已解析行的内存 TTL 缓存（生命周期 = 进程生命周期）。
//
// 约束：
// - 过期条目只在 Get 时被忽略，不会被主动删除；下次 Put 直接覆盖
// - Put 无条件覆盖（不合并）
// - Clear 清空全部条目（无论是否过期），只用于显式失效
// - 并发安全：goroutine 是真并行的，读写必须加锁
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

type Option func(*Store)

// WithTTL 覆盖默认 TTL（<=0 时忽略）。
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]Entry, 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 返回未过期的条目；不存在或 age >= TTL 时返回 ok=false。
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if s.now().Sub(e.CapturedAt) >= s.ttl {
		return Entry{}, false
	}
	return e, true
}

// Put 以当前时间戳写入（覆盖）条目。
func (s *Store) Put(key string, rows []domain.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Rows: rows, CapturedAt: s.now()}
}

// Clear 清空全部条目。
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len 返回当前条目数（含已过期但未被覆盖的条目），用于诊断。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TTL 返回生效的有效期。
func (s *Store) TTL() time.Duration { return s.ttl }
