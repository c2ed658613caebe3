package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 1000},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
	if strings.HasSuffix(trunc, " ") {
		t.Fatalf("expected trailing space trimmed, got %q", trunc[len(trunc)-8:])
	}
	if got := utils.TruncateToTokenLimit("short text", 300); got != "short text" {
		t.Fatalf("short text changed: %q", got)
	}
}
