package domain

// Row 是表格中的一行：按列位置排列的字符串字段，本身不携带 schema。
// 字段含义由 catalog 的列映射表按记录类型赋予。
type Row []string

// First 返回首列（去除首尾空白）；空行/短行返回空串。
func (r Row) First() string {
	if len(r) == 0 {
		return ""
	}
	return trimSpace(r[0])
}

// SheetID 是三张固定逻辑表之一。
// 真实的 gid 只由 config 绑定；缓存 key 由 gid 派生，不与 SheetID 混用。
type SheetID string

const (
	SheetMovies   SheetID = "movies"
	SheetSeries   SheetID = "series"
	SheetEpisodes SheetID = "episodes"
)

// Sheets 返回全部逻辑表（顺序固定）。
func Sheets() []SheetID {
	return []SheetID{SheetMovies, SheetSeries, SheetEpisodes}
}

// ParseSheetID 解析 CLI/API 中的表名（不区分大小写，允许单数形式）。
func ParseSheetID(s string) (SheetID, bool) {
	switch lower(trimSpace(s)) {
	case "movies", "movie":
		return SheetMovies, true
	case "series":
		return SheetSeries, true
	case "episodes", "episode":
		return SheetEpisodes, true
	default:
		return "", false
	}
}
