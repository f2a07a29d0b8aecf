package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/John-Robertt/pipoca/internal/logging"
	"github.com/John-Robertt/pipoca/internal/server"
)

const shutdownTimeout = 5 * time.Second

type serveArgs struct {
	commonArgs

	Addr    string
	AddrSet bool
}

func serveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printServeUsage()
			return 0
		}
	}

	sa, err := parseServeArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage()
		return 2
	}

	eff, err := loadConfig(sa.commonArgs, sa.Addr, sa.AddrSet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	log, closer := logging.New(logging.Options{Level: eff.LogLevel, Format: eff.LogFormat, File: eff.LogFile})
	defer closer.Close()

	svc, err := buildService(eff, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败：%v\n", err)
		return 1
	}

	srv := &http.Server{
		Addr:              eff.Addr,
		Handler:           server.NewRouter(server.New(svc, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("API 已启动", "addr", eff.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API 异常退出", "err", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("正在关闭 API")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("关闭 API 失败", "err", err)
		return 1
	}
	return 0
}

func parseServeArgs(args []string) (serveArgs, error) {
	sa := serveArgs{}
	for i := 0; i < len(args); {
		n, err := takeCommon(&sa.commonArgs, args, i)
		if err != nil {
			return serveArgs{}, err
		}
		if n > 0 {
			i += n
			continue
		}
		v, n, err := takeValue("--addr", args, i)
		if err != nil {
			return serveArgs{}, err
		}
		if n == 0 {
			return serveArgs{}, fmt.Errorf("未知参数 %q", args[i])
		}
		sa.Addr, sa.AddrSet = v, true
		i += n
	}
	return sa, nil
}

func printServeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pipoca serve [--addr host:port]

参数：
  --addr       监听地址（默认 127.0.0.1:8080，可由配置或 PIPOCA_ADDR 提供）
  --config     配置文件路径
  --log-level  debug|info|warn|error
  -h, --help   显示帮助
`)
}
