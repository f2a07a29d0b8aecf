// Package tabular 把电子表格导出的 CSV 文本解析为行。
//
// 与 encoding/csv 的差异是有意的：
// - 逐行独立处理（不支持跨行的引号字段），坏行只影响自己
// - 引号在字段任意位置都切换“引号内”状态，而不是报 ErrBareQuote
// - 每个字段去除首尾空白
// 因此 Parse 永不失败：畸形输入只会降级，不会报错。
package tabular

import (
	"strings"

	"github.com/John-Robertt/pipoca/internal/domain"
)

// Parse 解析整段文本。
//
// 规则：
// - 第一行无条件视为表头并跳过
// - 其余行去除首尾空白后为空的，直接跳过（不产出空行）
// - 输出保持原始行序与列序
func Parse(text string) []domain.Row {
	lines := strings.Split(text, "\n")
	rows := make([]domain.Row, 0, len(lines))
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}
	return rows
}

// ParseLine 按“引号感知”的规则切分一行。
//
// 状态机（从左到右）：
// - '"'：若已在引号内且下一个字符也是 '"'，产出一个字面量 '"' 并吞掉两个字符；否则切换引号状态
// - ','：仅在引号外结束当前字段
// - 其他字符：累积到当前字段
//
// 最后一个字段即使没有结尾分隔符也总会产出。
func ParseLine(line string) domain.Row {
	var (
		fields = make(domain.Row, 0, 16)
		cur    strings.Builder
		inQ    bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQ && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQ = !inQ
		case ch == ',' && !inQ:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}
