package domain

import (
	"sort"
	"time"
)

// Snapshot 是一次完整加载（三张表）的对外稳定输出（CLI stdout JSON / 导出文件 / API）。
type Snapshot struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Summary  SnapshotSummary `json:"summary"`
	Movies   []Movie         `json:"movies"`
	Series   []Series        `json:"series"`
	Episodes []Episode       `json:"episodes"`
	Errors   []SheetError    `json:"errors"`
}

type SnapshotSummary struct {
	Movies   int `json:"movies"`
	Series   int `json:"series"`
	Episodes int `json:"episodes"`
	Failed   int `json:"failed"`
}

// SheetError 记录某张表加载失败的原因（该表在快照中为空列表）。
type SheetError struct {
	Sheet SheetID `json:"sheet"`
	Msg   string  `json:"msg"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) nil 列表替换为空列表；errors 按表名稳定排序
// 3) summary 由列表计算得出
func (s *Snapshot) Finalize() {
	s.GeneratedAt = s.GeneratedAt.UTC()

	if s.Movies == nil {
		s.Movies = []Movie{}
	}
	if s.Series == nil {
		s.Series = []Series{}
	}
	if s.Episodes == nil {
		s.Episodes = []Episode{}
	}
	if s.Errors == nil {
		s.Errors = []SheetError{}
	}
	sort.SliceStable(s.Errors, func(i, j int) bool { return s.Errors[i].Sheet < s.Errors[j].Sheet })

	s.Summary = SnapshotSummary{
		Movies:   len(s.Movies),
		Series:   len(s.Series),
		Episodes: len(s.Episodes),
		Failed:   len(s.Errors),
	}
}
