// Package logging 配置 log/slog，并在请求上下文中传递 request_id。
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 描述日志输出；File 为空时写 stderr（stdout 留给 JSON 输出）。
type Options struct {
	Level  string // debug|info|warn|error，默认 info
	Format string // text|json，默认 text
	File   string

	// 仅在 File 非空时生效。
	MaxSizeMB  int
	MaxBackups int
}

// New 按 Options 构造 logger；返回的 io.Closer 用于关闭日志文件（写 stderr 时为 no-op）。
func New(o Options) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if strings.TrimSpace(o.File) != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, 10),
			MaxBackups: orDefault(o.MaxBackups, 3),
			Compress:   true,
		}
		w, closer = lj, lj
	}
	return slog.New(newHandler(w, o.Level, o.Format)), closer
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel 把字符串转换为 slog.Level（未知值按 info 处理）。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// WithRequestID 把 request_id 放入 ctx。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID 读取 ctx 中的 request_id（不存在时为空串）。
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// FromContext 返回带 request_id 的 logger（ctx 中没有时原样返回 base）。
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := RequestID(ctx); id != "" {
		return base.With("request_id", id)
	}
	return base
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
