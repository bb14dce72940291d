package ui

import (
	"strings"
	"testing"
)

func withoutColor(t *testing.T) {
	t.Helper()
	original := ColorEnabled
	ColorEnabled = func() bool { return false }
	t.Cleanup(func() { ColorEnabled = original })
}

func TestStatusPlainWithoutColor(t *testing.T) {
	withoutColor(t)

	for _, status := range []string{"to-do", "in-progress", "done", "unknown"} {
		if got := Status(status); got != status {
			t.Fatalf("expected %q, got %q", status, got)
		}
	}
	if got := Priority("high"); got != "high" {
		t.Fatalf("expected plain priority, got %q", got)
	}
	if got := Failure("Would create circular reference"); got != "Would create circular reference" {
		t.Fatalf("expected plain failure, got %q", got)
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("Adding this dependency would create a circular reference", 24, 4)
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %q", got)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "    ") {
			t.Fatalf("expected indented line, got %q", line)
		}
		if len(line) > 24 {
			t.Fatalf("expected line within 24 columns, got %d: %q", len(line), line)
		}
	}
	if Wrap("   ", 10, 2) != "" {
		t.Fatal("expected blank input to stay empty")
	}
}
