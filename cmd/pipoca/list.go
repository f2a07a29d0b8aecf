package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/pipoca/internal/catalog"
	"github.com/John-Robertt/pipoca/internal/domain"
	"github.com/John-Robertt/pipoca/internal/infra/fsx"
	"github.com/John-Robertt/pipoca/internal/logging"
)

const kindAll = "all"

type listArgs struct {
	commonArgs

	Kind  string // movies|series|episodes|all
	Query string
	Out   string
}

func listCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printListUsage()
			return 0
		}
	}

	la, err := parseListArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printListUsage()
		return 2
	}

	eff, err := loadConfig(la.commonArgs, "", false)
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
	return runList(context.Background(), svc, la, os.Stdout, os.Stderr, isTTY(os.Stdout))
}

func parseListArgs(args []string) (listArgs, error) {
	la := listArgs{Kind: kindAll}
	kindSet := false

	for i := 0; i < len(args); {
		n, err := takeCommon(&la.commonArgs, args, i)
		if err != nil {
			return listArgs{}, err
		}
		if n > 0 {
			i += n
			continue
		}
		if v, n, err := takeValue("--q", args, i); err != nil {
			return listArgs{}, err
		} else if n > 0 {
			la.Query, i = v, i+n
			continue
		}
		if v, n, err := takeValue("--out", args, i); err != nil {
			return listArgs{}, err
		} else if n > 0 {
			if strings.TrimSpace(v) == "" {
				return listArgs{}, fmt.Errorf("--out 不能为空")
			}
			la.Out, i = v, i+n
			continue
		}

		a := args[i]
		if strings.HasPrefix(a, "-") {
			return listArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if kindSet {
			return listArgs{}, fmt.Errorf("重复的类型：%q 与 %q", la.Kind, a)
		}
		if a != kindAll {
			id, ok := domain.ParseSheetID(a)
			if !ok {
				return listArgs{}, fmt.Errorf("类型只能是 movies|series|episodes|all，实际是 %q", a)
			}
			a = string(id)
		}
		la.Kind, kindSet = a, true
		i++
	}
	return la, nil
}

// runList 拉取并输出结果，返回进程退出码（任一表失败即为 1）。
//
// 输出契约（与终端类型有关）：
// - stdout 非 TTY：stdout 只输出一个 JSON 文档；摘要走 stderr
// - stdout 是 TTY：只打印摘要与失败原因
// --out 非空时额外把同一个 JSON 原子写入该文件。
func runList(ctx context.Context, svc *catalog.Service, la listArgs, stdout, stderr io.Writer, tty bool) int {
	doc, counts, errs := collect(ctx, svc, la)

	if la.Out != "" {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err == nil {
			err = fsx.WriteFileAtomic(nil, la.Out, append(b, '\n'))
		}
		if err != nil {
			fmt.Fprintf(stderr, "写入 %s 失败：%v\n", la.Out, err)
			return 1
		}
	}

	if !tty {
		_ = json.NewEncoder(stdout).Encode(doc)
		stdout = stderr
	}
	fmt.Fprintf(stdout, "完成：%s\n", counts)
	for _, e := range errs {
		fmt.Fprintf(stderr, "%s: %s\n", e.Sheet, e.Msg)
	}
	if len(errs) > 0 {
		return 1
	}
	return 0
}

// collect 返回要输出的 JSON 文档、摘要串与失败列表。
// all 输出完整快照；单表输出按 --q 过滤后的列表（episodes 按剧名选取）。
func collect(ctx context.Context, svc *catalog.Service, la listArgs) (any, string, []domain.SheetError) {
	switch la.Kind {
	case string(domain.SheetMovies):
		o := svc.Movies(ctx)
		items := catalog.Filter(o.Items, la.Query, catalog.MovieTitle)
		return items, fmt.Sprintf("movies=%d", len(items)), sheetErrors(domain.SheetMovies, o.Err)
	case string(domain.SheetSeries):
		o := svc.Series(ctx)
		items := catalog.Filter(o.Items, la.Query, catalog.SeriesTitle)
		return items, fmt.Sprintf("series=%d", len(items)), sheetErrors(domain.SheetSeries, o.Err)
	case string(domain.SheetEpisodes):
		o := svc.Episodes(ctx)
		items := o.Items
		if strings.TrimSpace(la.Query) != "" {
			items = catalog.EpisodesOf(items, la.Query)
		}
		return items, fmt.Sprintf("episodes=%d", len(items)), sheetErrors(domain.SheetEpisodes, o.Err)
	default:
		snap := svc.Snapshot(ctx)
		if la.Query != "" {
			snap.Movies = catalog.Filter(snap.Movies, la.Query, catalog.MovieTitle)
			snap.Series = catalog.Filter(snap.Series, la.Query, catalog.SeriesTitle)
			snap.Episodes = catalog.Filter(snap.Episodes, la.Query, catalog.EpisodeSeries)
			snap.Finalize()
		}
		return snap, fmt.Sprintf("movies=%d series=%d episodes=%d",
			snap.Summary.Movies, snap.Summary.Series, snap.Summary.Episodes), snap.Errors
	}
}

func sheetErrors(id domain.SheetID, err error) []domain.SheetError {
	if err == nil {
		return nil
	}
	return []domain.SheetError{{Sheet: id, Msg: err.Error()}}
}

func printListUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pipoca list [movies|series|episodes|all] [--q 文本] [--out 文件]

参数：
  类型         要拉取的表（默认 all：输出包含三张表的快照）
  --q          按标题过滤（忽略大小写与重音）；episodes 时表示剧名
  --out        额外把 JSON 结果原子写入该文件
  --config     配置文件路径
  --log-level  debug|info|warn|error
  -h, --help   显示帮助
`)
}
