package relay

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HTTPStatusError 表示 relay 返回了非 2xx 的 HTTP 状态码（单次尝试失败，可重试）。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// BlockedError 表示拿到的是 HTML 页面而不是 CSV（表格未发布、需要登录、relay 报错页等）。
// 状态码可能是 200，因此必须看内容判断；按单次尝试失败处理。
type BlockedError struct {
	URL    string
	Reason string // 通常是 <title> 文本
}

func (e *BlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	if strings.TrimSpace(e.Reason) == "" {
		return "blocked: 响应是 HTML 而不是 CSV"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}

// BodyTooLargeError 表示响应体超过读取上限；内容不完整，不能交给解析器。
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("响应体超过 %d 字节上限", e.Limit)
}

// TimeoutError 表示单次尝试超过了每次尝试的超时时间（该次请求已被取消）。
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("请求超时（%s）", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// ExhaustedRetriesError 表示全部尝试都失败；Err 是最后一次尝试的错误。
type ExhaustedRetriesError struct {
	URL      string // 目标 URL（不是 relay URL）
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("relay: %d 次尝试均失败：%v", e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error { return e.Err }
