package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/John-Robertt/pipoca/internal/catalog"
	"github.com/John-Robertt/pipoca/internal/config"
	"github.com/John-Robertt/pipoca/internal/infra/cache"
	"github.com/John-Robertt/pipoca/internal/infra/httpx"
	"github.com/John-Robertt/pipoca/internal/relay"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	// .env 可选：不存在时静默忽略；已存在的环境变量不会被覆盖。
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "读取 .env 失败：%v\n", err)
		}
	}

	var code int
	switch args[0] {
	case "list":
		code = listCmd(args[1:])
	case "serve":
		code = serveCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

// commonArgs 是 list/serve 共享的全局参数。
type commonArgs struct {
	ConfigPath  string
	LogLevel    string
	LogLevelSet bool
}

// takeCommon 尝试把 args[i] 解析为全局参数；返回消耗的参数个数（0 表示不是全局参数）。
func takeCommon(ca *commonArgs, args []string, i int) (int, error) {
	a := args[i]
	switch {
	case a == "--config":
		if i+1 >= len(args) {
			return 0, fmt.Errorf("--config 需要一个值")
		}
		ca.ConfigPath = args[i+1]
		return 2, nil
	case strings.HasPrefix(a, "--config="):
		ca.ConfigPath = strings.TrimPrefix(a, "--config=")
		return 1, nil
	case a == "--log-level":
		if i+1 >= len(args) {
			return 0, fmt.Errorf("--log-level 需要一个值")
		}
		ca.LogLevel, ca.LogLevelSet = args[i+1], true
		return 2, nil
	case strings.HasPrefix(a, "--log-level="):
		ca.LogLevel, ca.LogLevelSet = strings.TrimPrefix(a, "--log-level="), true
		return 1, nil
	}
	return 0, nil
}

// takeValue 解析 "--name v" 或 "--name=v" 形式的参数。
func takeValue(name string, args []string, i int) (string, int, error) {
	a := args[i]
	if a == name {
		if i+1 >= len(args) {
			return "", 0, fmt.Errorf("%s 需要一个值", name)
		}
		return args[i+1], 2, nil
	}
	if strings.HasPrefix(a, name+"=") {
		return strings.TrimPrefix(a, name+"="), 1, nil
	}
	return "", 0, nil
}

func loadConfig(ca commonArgs, addr string, addrSet bool) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	cwd, _ = filepath.Abs(cwd)
	return config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:  ca.ConfigPath,
		LogLevel:    ca.LogLevel,
		LogLevelSet: ca.LogLevelSet,
		Addr:        addr,
		AddrSet:     addrSet,
	})
}

// buildService 按生效配置组装抓取链路：relay client → Fetcher → 缓存 → 门面。
func buildService(eff config.EffectiveConfig, log *slog.Logger) (*catalog.Service, error) {
	f, err := relay.New(eff.Source.RelayURL,
		relay.WithClient(httpx.NewRelayClient()),
		relay.WithTimeout(eff.Timeout),
		relay.WithMaxAttempts(eff.MaxAttempts),
		relay.WithBackoffUnit(eff.BackoffUnit),
		relay.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	store := cache.New(cache.WithTTL(eff.CacheTTL))
	return catalog.New(f, store, eff.Source, log), nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pipoca list [movies|series|episodes|all] [--q 文本] [--out 文件]
  pipoca serve [--addr host:port]

命令：
  list   拉取目录并输出（stdout 非 TTY 时输出 JSON）
  serve  启动只读 JSON API

全局参数：
  --config     配置文件路径（默认尝试 ./pipoca.json）
  --log-level  debug|info|warn|error

使用 "pipoca list --help" 或 "pipoca serve --help" 查看详细说明。
`)
}
