package catalog

import (
	"strconv"
	"strings"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// Field 是记录中的具名字段；列位置只在下面的映射表里出现一次。
type Field int

const (
	FieldTitle Field = iota
	FieldLink
	FieldSynopsis
	FieldCover
	FieldCategory
	FieldYear
	FieldDuration
	FieldTrailer
	FieldCastNames
	FieldCastPhotos
	FieldKind
	FieldAudio
	FieldSeasons

	FieldSeries
	FieldSeason
	FieldEpisode
)

// Columns 是“列位置 → 具名字段”的映射表。
type Columns map[Field]int

// TitleColumns 是电影表与剧集表共用的列布局（第 10 列当前未使用）。
var TitleColumns = Columns{
	FieldTitle:      0,
	FieldLink:       1,
	FieldSynopsis:   2,
	FieldCover:      3,
	FieldCategory:   4,
	FieldYear:       5,
	FieldDuration:   6,
	FieldTrailer:    7,
	FieldCastNames:  8,
	FieldCastPhotos: 9,
	FieldKind:       11,
	FieldAudio:      12,
	FieldSeasons:    13,
}

// EpisodeColumns 是单集表的列布局。
var EpisodeColumns = Columns{
	FieldSeries:  0,
	FieldLink:    1,
	FieldSeason:  2,
	FieldEpisode: 3,
}

// record 是按映射表解释的一行；短行的缺失列读作空串。
type record struct {
	row  domain.Row
	cols Columns
}

func (r record) str(f Field) string {
	i, ok := r.cols[f]
	if !ok || i < 0 || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r record) strOr(f Field, def string) string {
	if s := r.str(f); s != "" {
		return s
	}
	return def
}

// list 按 '|' 切分；空字段得到空列表。
// 片段只去空白、不删除：姓名与照片按位置对应，删除会错位。
func (r record) list(f Field) []string {
	s := r.str(f)
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// intOr 解析前导整数（允许符号，忽略数字之后的内容）。
// 缺失、无法解析（含超出 int 范围）或结果为 0 时返回 def；负数原样保留。
func (r record) intOr(f Field, def int) int {
	s := r.str(f)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n == 0 {
		return def
	}
	return n
}

func (r record) title(kind string) domain.Title {
	return domain.Title{
		Title:      r.str(FieldTitle),
		Link:       r.str(FieldLink),
		Synopsis:   r.str(FieldSynopsis),
		Cover:      r.str(FieldCover),
		Category:   r.str(FieldCategory),
		Year:       r.str(FieldYear),
		Duration:   r.str(FieldDuration),
		Trailer:    r.str(FieldTrailer),
		CastNames:  r.list(FieldCastNames),
		CastPhotos: r.list(FieldCastPhotos),
		Kind:       kind,
		Audio:      r.str(FieldAudio),
	}
}

// MapMovie 把一行映射为 Movie；Kind 缺省为 "movie"。
func MapMovie(row domain.Row) domain.Movie {
	r := record{row: row, cols: TitleColumns}
	return domain.Movie{Title: r.title(r.strOr(FieldKind, domain.KindMovie))}
}

// MapSeries 把一行映射为 Series；Kind 固定为 "series"，季数缺省为 1。
func MapSeries(row domain.Row) domain.Series {
	r := record{row: row, cols: TitleColumns}
	return domain.Series{
		Title:   r.title(domain.KindSeries),
		Seasons: r.intOr(FieldSeasons, 1),
	}
}

// MapEpisode 把一行映射为 Episode；季/集号缺省为 1。
func MapEpisode(row domain.Row) domain.Episode {
	r := record{row: row, cols: EpisodeColumns}
	return domain.Episode{
		Series:  r.str(FieldSeries),
		Link:    r.str(FieldLink),
		Season:  r.intOr(FieldSeason, 1),
		Episode: r.intOr(FieldEpisode, 1),
	}
}

// mapRows 丢弃首列为空的行，再逐行映射。
func mapRows[T any](rows []domain.Row, fn func(domain.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if row.First() == "" {
			continue
		}
		out = append(out, fn(row))
	}
	return out
}
