package ids

import (
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	id := Generate("write the report", DefaultLength)

	if len(id) != DefaultLength {
		t.Fatalf("expected ID length %d, got %d: %q", DefaultLength, len(id), id)
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= '2' && c <= '7')) {
			t.Errorf("ID contains invalid character %q: %q", c, id)
		}
	}
	if again := Generate("write the report", DefaultLength); again != id {
		t.Errorf("same inputs should produce same ID: got %q and %q", id, again)
	}
	if Generate("x", 0) != "" {
		t.Error("zero length should produce empty ID")
	}
}

func TestGenerateWithTimestamp(t *testing.T) {
	timestamp := time.Date(2024, 3, 2, 9, 12, 0, 0, time.UTC)

	id1 := GenerateWithTimestamp("task", timestamp, 8)
	id2 := GenerateWithTimestamp("task", timestamp.Add(time.Nanosecond), 8)
	if id1 == id2 {
		t.Error("different timestamps should produce different IDs")
	}
}

func TestUniquePrefixLengths(t *testing.T) {
	lengths := UniquePrefixLengths([]string{"2u3iutfd", "2A9K1111", "abc12345", "abc12345"})

	want := map[string]int{"2u3iutfd": 2, "2a9k1111": 2, "abc12345": 1}
	if len(lengths) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), lengths)
	}
	for id, length := range want {
		if got := lengths[id]; got != length {
			t.Errorf("prefix length for %s = %d, want %d", id, got, length)
		}
	}
}

func TestMatchPrefix(t *testing.T) {
	ids := Normalize([]string{"abc", "abd", "abcdef", "xyz"})

	tests := []struct {
		prefix    string
		match     string
		found     bool
		ambiguous bool
	}{
		{prefix: "x", match: "xyz", found: true},
		{prefix: "ABD", match: "abd", found: true},
		{prefix: "abc", match: "abc", found: true},
		{prefix: "ab", found: true, ambiguous: true},
		{prefix: "q"},
		{prefix: "  "},
	}
	for _, tt := range tests {
		match, found, ambiguous := MatchPrefix(ids, tt.prefix)
		if match != tt.match || found != tt.found || ambiguous != tt.ambiguous {
			t.Errorf("MatchPrefix(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.prefix, match, found, ambiguous, tt.match, tt.found, tt.ambiguous)
		}
	}
}
