package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// 数据源常量：固定值，不接受运行时配置。
const (
	RelayBaseURL  = "https://autumn-pine-50da.slacarambafdsosobrenome.workers.dev/"
	SheetsBaseURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vS9sXjpyoG6N147QcYeh50AIXF6-Bmp0sCt4fqDblpjw466UBvTWXW8AZr4_PzUTWdRxYb5kUa0uOi4/pub?output=csv"

	GIDMovies   = 300449936
	GIDSeries   = 413183487
	GIDEpisodes = 1394045118

	CacheTTL       = 5 * time.Minute
	RequestTimeout = 12 * time.Second
	MaxAttempts    = 3
	BackoffUnit    = 800 * time.Millisecond
)

// Source 描述“去哪里取哪张表”：relay 端点、表格导出地址、每张逻辑表的 gid。
type Source struct {
	RelayURL  string
	SheetsURL string
	GIDs      map[domain.SheetID]int
}

func DefaultSource() Source {
	return Source{
		RelayURL:  RelayBaseURL,
		SheetsURL: SheetsBaseURL,
		GIDs: map[domain.SheetID]int{
			domain.SheetMovies:   GIDMovies,
			domain.SheetSeries:   GIDSeries,
			domain.SheetEpisodes: GIDEpisodes,
		},
	}
}

// SheetURL 返回某张逻辑表的导出地址（<SheetsURL>&gid=<gid>）。
func (s Source) SheetURL(id domain.SheetID) (string, error) {
	gid, ok := s.GIDs[id]
	if !ok {
		return "", fmt.Errorf("未知的表：%q", id)
	}
	sep := "&"
	if !strings.Contains(s.SheetsURL, "?") {
		sep = "?"
	}
	return s.SheetsURL + sep + "gid=" + strconv.Itoa(gid), nil
}

// CacheKey 由 gid 确定性派生缓存 key（"sheet_<gid>"）。
func (s Source) CacheKey(id domain.SheetID) (string, error) {
	gid, ok := s.GIDs[id]
	if !ok {
		return "", fmt.Errorf("未知的表：%q", id)
	}
	return "sheet_" + strconv.Itoa(gid), nil
}
