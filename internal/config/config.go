package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是 cwd 下自动发现的配置文件名（可选）。
const FileName = "pipoca.json"

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultAddr      = "127.0.0.1:8080"
)

// 环境变量（可由 .env 提供）。
const (
	EnvLogLevel  = "PIPOCA_LOG_LEVEL"
	EnvLogFormat = "PIPOCA_LOG_FORMAT"
	EnvLogFile   = "PIPOCA_LOG_FILE"
	EnvAddr      = "PIPOCA_ADDR"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
type CLIArgs struct {
	ConfigPath string

	LogLevel    string
	LogLevelSet bool

	Addr    string
	AddrSet bool
}

// FileConfig 对应 pipoca.json 的解析结构。
//
// 数据源（relay/表格地址、gid、TTL、超时、重试）不在这里：它们是固定常量，不接受运行时配置。
type FileConfig struct {
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file"`
	Addr      string `json:"addr"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	LogLevel  string
	LogFormat string
	LogFile   string // 为空表示写 stderr
	Addr      string

	Source      Source
	CacheTTL    time.Duration
	Timeout     time.Duration
	MaxAttempts int
	BackoffUnit time.Duration
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与环境变量、CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/pipoca.json（可选）
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if required && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	level := pick(DefaultLogLevel, fc.LogLevel, env(EnvLogLevel))
	if cli.LogLevelSet {
		level = cli.LogLevel
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if err := validateLevel(level); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	format := strings.ToLower(strings.TrimSpace(pick(DefaultLogFormat, fc.LogFormat, env(EnvLogFormat))))
	if format != "text" && format != "json" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log_format 只能是 text 或 json，实际是 %q", format)}
	}

	logFile := strings.TrimSpace(pick("", fc.LogFile, env(EnvLogFile)))
	if logFile != "" {
		logFile = absCleanFrom(cwdAbs, logFile)
	}

	addr := pick(DefaultAddr, fc.Addr, env(EnvAddr))
	if cli.AddrSet {
		addr = cli.Addr
	}
	addr = strings.TrimSpace(addr)
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("addr 无效：%w", err)}
	}

	return EffectiveConfig{
		LogLevel:    level,
		LogFormat:   format,
		LogFile:     logFile,
		Addr:        addr,
		Source:      DefaultSource(),
		CacheTTL:    CacheTTL,
		Timeout:     RequestTimeout,
		MaxAttempts: MaxAttempts,
		BackoffUnit: BackoffUnit,
	}, nil
}

// pick 按 default < file < env 的顺序取最后一个非空值。
func pick(def string, layers ...string) string {
	v := def
	for _, l := range layers {
		if strings.TrimSpace(l) != "" {
			v = l
		}
	}
	return v
}

func env(key string) string {
	v, _ := os.LookupEnv(key)
	return v
}

func validateLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", level)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
