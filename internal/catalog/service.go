// Package catalog 是目录数据的门面：缓存检查 → 未命中时经 relay 抓取 → 解析 → 写缓存 → 过滤 → 映射。
//
// 对外的 ListX 操作永不失败：失败被隔离为空列表（见 contain），
// 需要区分“空”与“失败”的调用方使用返回 domain.Outcome 的同名方法。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/singleflight"

	"github.com/John-Robertt/pipoca/internal/config"
	"github.com/John-Robertt/pipoca/internal/domain"
	"github.com/John-Robertt/pipoca/internal/infra/cache"
	"github.com/John-Robertt/pipoca/internal/tabular"
)

// Fetcher 抓取目标 URL 的原始文本（生产实现是 *relay.Fetcher）。
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
}

// Service 持有缓存实例与抓取器；构造一次，进程内复用。
type Service struct {
	fetcher Fetcher
	cache   *cache.Store
	source  config.Source
	log     *slog.Logger

	// flight 合并同一张表并发的缓存未命中：只发一次抓取，结果共享。
	flight singleflight.Group

	// gen 每次 ClearCache 加一；清空前发起的抓取完成后不再写回缓存。
	mu  sync.Mutex
	gen uint64
}

func New(f Fetcher, store *cache.Store, src config.Source, log *slog.Logger) *Service {
	if store == nil {
		store = cache.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		fetcher: f,
		cache:   store,
		source:  src,
		log:     log.With("component", "catalog"),
	}
}

// Movies 加载电影列表（失败时 Err 非空、Items 为空）。
func (s *Service) Movies(ctx context.Context) domain.Outcome[domain.Movie] {
	return load(ctx, s, domain.SheetMovies, MapMovie)
}

// Series 加载剧集列表。
func (s *Service) Series(ctx context.Context) domain.Outcome[domain.Series] {
	return load(ctx, s, domain.SheetSeries, MapSeries)
}

// Episodes 加载单集列表。
func (s *Service) Episodes(ctx context.Context) domain.Outcome[domain.Episode] {
	return load(ctx, s, domain.SheetEpisodes, MapEpisode)
}

func (s *Service) ListMovies(ctx context.Context) []domain.Movie { return s.Movies(ctx).Items }

func (s *Service) ListSeries(ctx context.Context) []domain.Series { return s.Series(ctx).Items }

func (s *Service) ListEpisodes(ctx context.Context) []domain.Episode { return s.Episodes(ctx).Items }

// AllOutcome 是 All 的结果：两种类型各自独立成功或失败。
type AllOutcome struct {
	Movies domain.Outcome[domain.Movie]
	Series domain.Outcome[domain.Series]
}

func (a AllOutcome) Catalog() domain.Catalog {
	return domain.Catalog{Movies: a.Movies.Items, Series: a.Series.Items}
}

// All 并发加载电影与剧集；一方失败只会让该方为空列表，不影响另一方。
func (s *Service) All(ctx context.Context) AllOutcome {
	var (
		out AllOutcome
		wg  conc.WaitGroup
	)
	wg.Go(func() { out.Movies = s.Movies(ctx) })
	wg.Go(func() { out.Series = s.Series(ctx) })
	wg.Wait()
	return out
}

func (s *Service) ListAll(ctx context.Context) domain.Catalog { return s.All(ctx).Catalog() }

// Snapshot 并发加载三张表，生成一份可导出的快照（失败的表记入 Errors）。
func (s *Service) Snapshot(ctx context.Context) domain.Snapshot {
	var (
		movies   domain.Outcome[domain.Movie]
		series   domain.Outcome[domain.Series]
		episodes domain.Outcome[domain.Episode]
		wg       conc.WaitGroup
	)
	wg.Go(func() { movies = s.Movies(ctx) })
	wg.Go(func() { series = s.Series(ctx) })
	wg.Go(func() { episodes = s.Episodes(ctx) })
	wg.Wait()

	snap := domain.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now(),
		Movies:      movies.Items,
		Series:      series.Items,
		Episodes:    episodes.Items,
	}
	for _, f := range []struct {
		sheet domain.SheetID
		err   error
	}{
		{domain.SheetMovies, movies.Err},
		{domain.SheetSeries, series.Err},
		{domain.SheetEpisodes, episodes.Err},
	} {
		if f.err != nil {
			snap.Errors = append(snap.Errors, domain.SheetError{Sheet: f.sheet, Msg: f.err.Error()})
		}
	}
	snap.Finalize()
	return snap
}

// ClearCache 清空全部缓存条目（无论是否过期）；下一次 ListX 必然重新抓取。
//
// 清空时仍在进行的抓取不会被后续调用方复用，其结果也不会写回缓存。
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.gen++
	s.cache.Clear()
	for id := range s.source.GIDs {
		if key, err := s.source.CacheKey(id); err == nil {
			s.flight.Forget(key)
		}
	}
	s.mu.Unlock()
	s.log.Info("缓存已清空")
}

func load[T any](ctx context.Context, s *Service, id domain.SheetID, mapFn func(domain.Row) T) domain.Outcome[T] {
	return contain(ctx, s.log, id, func(ctx context.Context) ([]T, error) {
		rows, err := s.rows(ctx, id)
		if err != nil {
			return nil, err
		}
		return mapRows(rows, mapFn), nil
	})
}

// rows 返回某张表的已解析行：先查缓存，未命中再抓取 + 解析 + 写缓存。
func (s *Service) rows(ctx context.Context, id domain.SheetID) ([]domain.Row, error) {
	key, err := s.source.CacheKey(id)
	if err != nil {
		return nil, err
	}
	if e, ok := s.cache.Get(key); ok {
		s.log.Debug("缓存命中", "sheet", id, "rows", len(e.Rows))
		return e.Rows, nil
	}
	target, err := s.source.SheetURL(id)
	if err != nil {
		return nil, err
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("未配置 fetcher")
	}

	// 抓取脱离单个调用方的取消：它被多个等待者共享，且本身受每次尝试的超时约束。
	// DoChan 中的 panic 无法在调用方 recover，因此在这里就地转换为 error。
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (v any, err error) {
		s.mu.Lock()
		gen := s.gen
		s.mu.Unlock()

		var pc panics.Catcher
		pc.Try(func() { v, err = s.refresh(fetchCtx, id, key, target, gen) })
		if r := pc.Recovered(); r != nil {
			return nil, r.AsError()
		}
		return v, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Row), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) refresh(ctx context.Context, id domain.SheetID, key, target string, gen uint64) ([]domain.Row, error) {
	started := time.Now()
	text, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	rows := tabular.Parse(text)

	s.mu.Lock()
	stale := gen != s.gen
	if !stale {
		s.cache.Put(key, rows)
	}
	s.mu.Unlock()
	if stale {
		s.log.Debug("抓取期间缓存被清空，结果不写回", "sheet", id)
		return rows, nil
	}
	s.log.Info("表已刷新", "sheet", id, "rows", len(rows), "dur", time.Since(started))
	return rows, nil
}
