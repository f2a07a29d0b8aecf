package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/pipoca/internal/domain"
)

func TestLoadEffective_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != DefaultLogLevel || eff.LogFormat != DefaultLogFormat || eff.Addr != DefaultAddr || eff.LogFile != "" {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.CacheTTL != CacheTTL || eff.Timeout != RequestTimeout || eff.MaxAttempts != MaxAttempts || eff.BackoffUnit != BackoffUnit {
		t.Fatalf("数据源常量不符合预期：%+v", eff)
	}
	if eff.Source.RelayURL != RelayBaseURL {
		t.Fatalf("relay 地址不符合预期：%q", eff.Source.RelayURL)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{ConfigPath: "nope.json"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_MergeOrder(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, FileName), []byte(`{"log_level":"warn","log_format":"json","addr":"0.0.0.0:9000","log_file":"logs/pipoca.log"}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != "warn" || eff.LogFormat != "json" || eff.Addr != "0.0.0.0:9000" {
		t.Fatalf("配置文件未生效：%+v", eff)
	}
	if eff.LogFile != filepath.Join(cwd, "logs", "pipoca.log") {
		t.Fatalf("log_file 应相对 cwd 解析，实际 %q", eff.LogFile)
	}

	// 环境变量覆盖配置文件。
	t.Setenv(EnvLogLevel, "error")
	eff, err = LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != "error" {
		t.Fatalf("期望 env 覆盖为 error，实际 %q", eff.LogLevel)
	}

	// CLI 覆盖环境变量。
	eff, err = LoadEffective(cwd, CLIArgs{LogLevel: "DEBUG", LogLevelSet: true, Addr: ":8081", AddrSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != "debug" || eff.Addr != ":8081" {
		t.Fatalf("CLI 未覆盖：%+v", eff)
	}
}

func TestLoadEffective_InvalidConfig(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"broken json": `{`,
		"bad level":   `{"log_level":"loud"}`,
		"bad format":  `{"log_format":"xml"}`,
		"bad addr":    `{"addr":"nope"}`,
	}
	for name, body := range cases {
		cwd := t.TempDir()
		writeFile(t, filepath.Join(cwd, FileName), []byte(body))

		_, err := LoadEffective(cwd, CLIArgs{})
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%s：期望 %q，实际 err=%v (code=%q)", name, ErrCodeInvalid, err, Code(err))
		}
	}
}

func TestSource_SheetURLAndCacheKey(t *testing.T) {
	s := DefaultSource()

	u, err := s.SheetURL(domain.SheetSeries)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if u != SheetsBaseURL+"&gid=413183487" {
		t.Fatalf("sheet URL 不符合预期：%s", u)
	}

	k, err := s.CacheKey(domain.SheetEpisodes)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if k != "sheet_1394045118" {
		t.Fatalf("cache key 不符合预期：%s", k)
	}

	if _, err := s.SheetURL("nope"); err == nil {
		t.Fatalf("未知表应报错")
	}

	s.SheetsURL = "https://sheets.example.test/export"
	u, _ = s.SheetURL(domain.SheetMovies)
	if u != "https://sheets.example.test/export?gid=300449936" {
		t.Fatalf("无查询串时应使用 '?'：%s", u)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvLogFormat, EnvLogFile, EnvAddr} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
