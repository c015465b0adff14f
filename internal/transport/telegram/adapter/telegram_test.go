package adapter

import (
	"strings"
	"testing"
)

func TestSplitTextShort(t *testing.T) {
	got := splitText("hello", 100)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("splitText = %v", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	lines := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		lines = append(lines, strings.Repeat("x", 20))
	}
	text := strings.Join(lines, "\n")

	chunks := splitText(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, len([]rune(c)))
		}
		// Newline-boundary splits must not cut a line in half.
		for _, ln := range strings.Split(c, "\n") {
			if ln != "" && len(ln) != 20 {
				t.Fatalf("chunk %d contains a split line: %q", i, ln)
			}
		}
	}

	rejoined := strings.ReplaceAll(strings.Join(chunks, ""), "\n", "")
	if rejoined != strings.ReplaceAll(text, "\n", "") {
		t.Fatalf("content lost across chunks")
	}
}

func TestSplitTextNoNewlines(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := splitText(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Fatalf("content lost across chunks")
	}
}

func TestReplyKeyboard(t *testing.T) {
	rm := ReplyKeyboard([][]string{{"a"}, {"b", "c"}})
	if !rm.ResizeKeyboard {
		t.Fatalf("ResizeKeyboard not set")
	}
	if len(rm.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(rm.ReplyKeyboard))
	}
	if len(rm.ReplyKeyboard[1]) != 2 || rm.ReplyKeyboard[1][1].Text != "c" {
		t.Fatalf("second row = %+v", rm.ReplyKeyboard[1])
	}
}
