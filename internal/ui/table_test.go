package ui

import (
	"strings"
	"testing"
)

func TestTruncateTableCellCountsRunes(t *testing.T) {
	value := strings.Repeat("a", tableCellMaxWidth-1) + "é"

	if got := TruncateTableCell(value); got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestTruncateTableCellAddsEllipsis(t *testing.T) {
	value := strings.Repeat("b", tableCellMaxWidth+10)

	got := TruncateTableCell(value)
	if displayWidth(got) != tableCellMaxWidth {
		t.Fatalf("expected width %d, got %d: %q", tableCellMaxWidth, displayWidth(got), got)
	}
	if !strings.HasSuffix(got, tableCellEllipsis) {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestTruncateTableCellIgnoresANSICodes(t *testing.T) {
	value := "\x1b[1m\x1b[36m" + strings.Repeat("a", tableCellMaxWidth) + "\x1b[0m"

	if got := TruncateTableCell(value); got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestFormatTableNormalizesLineBreaks(t *testing.T) {
	got := FormatTable([]string{"COL"}, [][]string{{"Hello\nWorld\r\nAgain\tTab"}})

	expected := "COL\nHello World Again Tab\n"
	if got != expected {
		t.Fatalf("expected normalized table output, got %q", got)
	}
}

func TestTableBuilderAligns(t *testing.T) {
	builder := NewTableBuilder([]string{"ID", "STATUS", "TITLE"}, 2)
	builder.AddRow("abc", "\x1b[32mdone\x1b[0m", "Ship it")
	builder.AddRow("defghi", "to-do", "Write docs")

	lines := strings.Split(strings.TrimSuffix(builder.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	titleCol := strings.Index(lines[0], "TITLE")
	for i, title := range []string{"Ship it", "Write docs"} {
		plain := stripForTest(lines[i+1])
		if idx := strings.Index(plain, title); idx != titleCol {
			t.Fatalf("expected title column at %d, got %d in %q", titleCol, idx, plain)
		}
	}
}

func stripForTest(value string) string {
	var builder strings.Builder
	inEscape := false
	for i := 0; i < len(value); i++ {
		switch {
		case inEscape:
			inEscape = value[i] != 'm'
		case value[i] == '\x1b':
			inEscape = true
		default:
			builder.WriteByte(value[i])
		}
	}
	return builder.String()
}
