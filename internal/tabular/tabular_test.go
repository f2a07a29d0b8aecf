package tabular

import (
	"reflect"
	"testing"

	"github.com/John-Robertt/pipoca/internal/domain"
)

func TestParseLine_QuotedCommaAndEscapedQuote(t *testing.T) {
	got := ParseLine(`x,"A, ""B""",y`)
	want := domain.Row{"x", `A, "B"`, "y"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("切分结果不符合预期：got=%q want=%q", got, want)
	}
}

func TestParseLine_SingleQuotedField(t *testing.T) {
	got := ParseLine(`"A, ""B"""`)
	if len(got) != 1 || got[0] != `A, "B"` {
		t.Fatalf("期望单个字段 %q，实际 %q", `A, "B"`, got)
	}
}

func TestParseLine_TrimsFieldsAndKeepsTrailingEmpty(t *testing.T) {
	got := ParseLine(` a ,b,  ,`)
	want := domain.Row{"a", "b", "", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestParseLine_UnterminatedQuoteDegrades(t *testing.T) {
	// 未闭合的引号：剩余内容全部并入最后一个字段，不报错。
	got := ParseLine(`a,"b,c`)
	want := domain.Row{"a", "b,c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestParse_SkipsHeaderAndBlankLines(t *testing.T) {
	text := "nome,link\r\n" +
		"Filme A,https://a\r\n" +
		"   \r\n" +
		"\n" +
		"\"Filme, B\",https://b\n"

	got := Parse(text)
	want := []domain.Row{
		{"Filme A", "https://a"},
		{"Filme, B", "https://b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestParse_HeaderOnlyAndEmpty(t *testing.T) {
	if rows := Parse(""); len(rows) != 0 {
		t.Fatalf("空文本应产出 0 行，实际 %d", len(rows))
	}
	if rows := Parse("a,b,c"); len(rows) != 0 {
		t.Fatalf("只有表头应产出 0 行，实际 %d", len(rows))
	}
}

func TestParse_KeepsRowsWithEmptyFirstField(t *testing.T) {
	// 过滤空首列是门面层的职责，解析器保持原样输出。
	rows := Parse("h\n,x\n")
	if len(rows) != 1 || rows[0][0] != "" || rows[0][1] != "x" {
		t.Fatalf("解析器不应丢弃首列为空的行：%q", rows)
	}
}
