package catalog

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// contain 是门面层的失败隔离策略：
// load 返回的任何错误、以及 load 内部的 panic，都被转换为 Failed 结果（空列表 + 原因），并记录一条 warn 日志。
//
// 约束：contain 永不返回 error、永不向上 panic；最坏情况是空列表。
func contain[T any](ctx context.Context, log *slog.Logger, sheet domain.SheetID, load func(context.Context) ([]T, error)) domain.Outcome[T] {
	var (
		items []T
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() { items, err = load(ctx) })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		log.Warn("加载失败，返回空列表", "sheet", sheet, "err", err)
		return domain.Failed[T](err)
	}
	return domain.Succeeded(items)
}
