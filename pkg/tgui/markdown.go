package tgui

import "strings"

// M represents text that is safe to pass to Telegram when
// ParseMode="MarkdownV2". Values of type M are already escaped.
type M string

func (m M) String() string { return string(m) }

// EmptyMD is what EscapeMD returns for empty input. An empty string would
// produce invalid markup such as "**" once wrapped in emphasis.
const EmptyMD M = `\.`

// mdReserved are the characters MarkdownV2 treats as markup outside of
// code entities. The backslash is included so that untrusted text can never
// escape the character that follows it.
const mdReserved = "_*[]()~`>#+-=|{}.!\\"

// EscapeMD backslash-escapes every MarkdownV2 reserved character of s.
func EscapeMD(s string) M {
	if s == "" {
		return EmptyMD
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if r < 128 && strings.IndexRune(mdReserved, r) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return M(b.String())
}

// UnescapeMD removes the escape markers added by EscapeMD.
func UnescapeMD(m M) string {
	s := string(m)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(mdReserved, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// RawMD marks a string as already-safe MarkdownV2.
// Use sparingly.
func RawMD(s string) M { return M(s) }

func BoldMD(inner M) M      { return "*" + inner + "*" }
func UnderlineMD(inner M) M { return "__" + inner + "__" }

// LinkMD builds an inline link. Inside the URL part only ')' and '\' need
// escaping.
func LinkMD(text, url string) M {
	label := text
	if label == "" {
		label = url
	}
	r := strings.NewReplacer(`\`, `\\`, `)`, `\)`)
	return "[" + EscapeMD(label) + "](" + M(r.Replace(url)) + ")"
}
