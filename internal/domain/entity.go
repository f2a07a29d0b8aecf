package domain

import "strings"

const (
	KindMovie  = "movie"
	KindSeries = "series"
)

// Title 是 Movie 与 Series 共享的字段集合。
//
// 约束：
// - 缺失字段为空串，列表字段为空切片（JSON 输出为 []，不是 null）
// - CastNames 与 CastPhotos 按位置一一对应，因此切分后不删除空片段
type Title struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Synopsis   string   `json:"synopsis"`
	Cover      string   `json:"cover"`
	Category   string   `json:"category"`
	Year       string   `json:"year"`
	Duration   string   `json:"duration"`
	Trailer    string   `json:"trailer"`
	CastNames  []string `json:"cast_names"`
	CastPhotos []string `json:"cast_photos"`
	Kind       string   `json:"kind"`
	Audio      string   `json:"audio"`
}

// Movie 是电影记录；Kind 缺省为 "movie"。
type Movie struct {
	Title
}

// Series 是剧集记录；Kind 固定为 "series"，Seasons 缺省为 1。
type Series struct {
	Title
	Seasons int `json:"seasons"`
}

// Episode 是单集记录；Season/Episode 缺省为 1。
type Episode struct {
	Series  string `json:"series"`
	Link    string `json:"link"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// Catalog 是 ListAll 的对外结果（只包含电影与剧集）。
type Catalog struct {
	Movies []Movie  `json:"movies"`
	Series []Series `json:"series"`
}

func trimSpace(s string) string { return strings.TrimSpace(s) }

func lower(s string) string { return strings.ToLower(s) }
