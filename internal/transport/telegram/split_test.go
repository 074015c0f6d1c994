package telegram

import (
	"strings"
	"testing"
)

func TestSplitTelegramTextShort(t *testing.T) {
	got := splitTelegramText("hello", 10, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextPrefersNewline(t *testing.T) {
	s := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(s, 10, "")
	if len(got) != 2 || got[0] != "aaaaaa" || got[1] != "bbbbbb" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextKeepsEscapes(t *testing.T) {
	// A cut at 10 would separate "\" from ".".
	s := strings.Repeat("a", 9) + `\.` + strings.Repeat("b", 5)
	got := splitTelegramText(s, 10, "MarkdownV2")
	if len(got) != 2 || got[0] != strings.Repeat("a", 9) || !strings.HasPrefix(got[1], `\.`) {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextAvoidsTags(t *testing.T) {
	s := "aaaaaaaa<b>bold</b>"
	got := splitTelegramText(s, 10, "HTML")
	if got[0] != "aaaaaaaa" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextReopensBold(t *testing.T) {
	s := "*" + strings.Repeat("a", 4100) + "*"
	got := splitTelegramText(s, telegramTextLimit, "MarkdownV2")
	if len(got) != 2 {
		t.Fatalf("got %d chunks", len(got))
	}
	total := 0
	for i, c := range got {
		if !strings.HasPrefix(c, "*") || !strings.HasSuffix(c, "*") {
			t.Fatalf("chunk %d not wrapped in bold: %q...%q", i, c[:5], c[len(c)-5:])
		}
		if n := len([]rune(c)); n > telegramTextLimit {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
		total += strings.Count(c, "a")
	}
	if total != 4100 {
		t.Fatalf("lost text: %d runes of content", total)
	}
}

func TestSplitTelegramTextSeparatesNestedMarkers(t *testing.T) {
	s := "__\r_" + strings.Repeat("a", 200) + "_\r__"
	got := splitTelegramText(s, 100, "MarkdownV2")
	if len(got) < 3 {
		t.Fatalf("got %d chunks", len(got))
	}
	if !strings.HasSuffix(got[0], "a_\r__") {
		t.Fatalf("first chunk closes with %q", got[0][len(got[0])-6:])
	}
	for i, c := range got[1:] {
		if !strings.HasPrefix(c, "__\r_a") {
			t.Fatalf("chunk %d reopens with %q", i+1, c[:6])
		}
	}
}

func TestSplitTelegramTextKeepsLinksWhole(t *testing.T) {
	s := strings.Repeat("a", 80) + "[fiche](https://ent.fr/doc) fin"
	got := splitTelegramText(s, 100, "MarkdownV2")
	if len(got) != 2 || got[0] != strings.Repeat("a", 80) || got[1] != "[fiche](https://ent.fr/doc) fin" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitTelegramTextNoEmptyEntity(t *testing.T) {
	// The window ends right after the opening "*".
	s := strings.Repeat("a", 87) + "*" + strings.Repeat("b", 50) + "*"
	got := splitTelegramText(s, 100, "MarkdownV2")
	if len(got) != 2 || got[0] != strings.Repeat("a", 87) || got[1] != "*"+strings.Repeat("b", 50)+"*" {
		t.Fatalf("got %q", got)
	}
}
