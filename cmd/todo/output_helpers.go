package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/NHHoangTuan/todo-api/internal/markdown"
)

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func renderMarkdownOrDash(value string, width int) string {
	if width < 1 {
		width = 1
	}
	formatted := markdown.Render(width, 0, value)
	if strings.TrimSpace(formatted) == "" {
		return "-"
	}
	return formatted
}
