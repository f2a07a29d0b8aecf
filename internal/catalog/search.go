package catalog

import (
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// Normalize 把文本转写为 ASCII、转小写并压缩空白，用于不区分重音/大小写的比较。
// 例如 "Ação  Rápida" -> "acao rapida"。
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(s))), " ")
}

// Filter 保留标题包含 q 的条目（q 为空时原样返回）。
func Filter[T any](items []T, q string, titleOf func(T) string) []T {
	nq := Normalize(q)
	if nq == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(Normalize(titleOf(it)), nq) {
			out = append(out, it)
		}
	}
	return out
}

func MovieTitle(m domain.Movie) string { return m.Title.Title }

func SeriesTitle(s domain.Series) string { return s.Title.Title }

func EpisodeSeries(e domain.Episode) string { return e.Series }

// EpisodesOf 选出某部剧的全部单集（剧名按 Normalize 后精确匹配），按季、集排序。
func EpisodesOf(episodes []domain.Episode, series string) []domain.Episode {
	want := Normalize(series)
	out := make([]domain.Episode, 0, 16)
	for _, e := range episodes {
		if Normalize(e.Series) == want {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out
}
