package telegram

import "strings"

const telegramTextLimit = 4000

// mdReserve is kept free in each MarkdownV2 chunk for the markers that close
// entities cut by the split.
const mdReserve = 12

// splitTelegramText splits long messages into chunks that are safe to send to Telegram.
// It prefers newline boundaries. In HTML mode it avoids splitting inside a tag;
// in MarkdownV2 mode it never separates an escape backslash from its character,
// and formatting entities cut by the split are closed and reopened.
func splitTelegramText(s string, limit int, parseMode string) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	markdown := strings.EqualFold(parseMode, "MarkdownV2")
	window := limit
	if markdown && limit > 3*mdReserve {
		window -= mdReserve
	}

	out := make([]string, 0, (len(rs)+window-1)/window)
	start := 0
	for start < len(rs) {
		end := start + window
		if end > len(rs) {
			end = len(rs)
		}

		// Prefer splitting on a newline near the end of the window.
		if end < len(rs) {
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' && i-start >= window/3 {
					end = i + 1
					break
				}
			}
		}

		var carry []mdEntity
		if end < len(rs) {
			switch {
			case strings.EqualFold(parseMode, "HTML"):
				lastOpen, lastClose := -1, -1
				for i := start; i < end; i++ {
					if rs[i] == '<' {
						lastOpen = i
					} else if rs[i] == '>' {
						lastClose = i
					}
				}
				if lastOpen > lastClose && lastOpen > start+1 {
					end = lastOpen
				}
			case markdown:
				// Count the trailing backslashes: an odd run escapes rs[end].
				n := 0
				for i := end - 1; i >= start && rs[i] == '\\'; i-- {
					n++
				}
				if n%2 == 1 && end-1 > start {
					end--
				}
				end, carry = markdownCut(rs, start, end)
			}
		}

		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		if len(carry) > 0 {
			closers := make([]string, len(carry))
			for i, e := range carry {
				closers[len(carry)-1-i] = e.marker
			}
			chunk = joinMarkers(chunk, closers, "")
		}
		out = append(out, chunk)

		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
		if len(carry) > 0 && start < len(rs) {
			openers := make([]string, len(carry))
			for i, e := range carry {
				openers[i] = e.marker
			}
			reopen := []rune(joinMarkers("", openers, string(rs[start])))
			next := make([]rune, 0, len(rs)+len(reopen))
			next = append(next, rs[:start]...)
			next = append(next, reopen...)
			rs = append(next, rs[start:]...)
		}
	}
	return out
}

// mdEntity is a MarkdownV2 entity opened at pos and not yet closed.
type mdEntity struct {
	marker string
	pos    int
}

func (e mdEntity) emphasis() bool { return e.marker != "[" && e.marker != "`" }

// scanMarkdown returns the entities still open at end, in opening order.
// Text is assumed escaped: every unescaped marker character is markup.
func scanMarkdown(rs []rune, start, end int) []mdEntity {
	var open []mdEntity
	inURL := false
	for i := start; i < end; i++ {
		r := rs[i]
		if r == '\\' {
			i++
			continue
		}
		if len(open) > 0 && open[len(open)-1].marker == "`" {
			if r == '`' {
				open = open[:len(open)-1]
			}
			continue
		}
		if inURL {
			if r == ')' {
				inURL = false
				open = closeEntity(open, "[")
			}
			continue
		}

		var m string
		switch r {
		case '*', '~', '`':
			m = string(r)
		case '_':
			m = "_"
			if i+1 < len(rs) && rs[i+1] == '_' {
				m = "__"
			}
		case '|':
			if i+1 < len(rs) && rs[i+1] == '|' {
				m = "||"
			}
		case '[':
			open = append(open, mdEntity{marker: "[", pos: i})
		case ']':
			if i+1 < len(rs) && rs[i+1] == '(' && isOpen(open, "[") {
				inURL = true
				i++
			}
		}
		if m == "" {
			continue
		}
		if m != "`" && isOpen(open, m) {
			open = closeEntity(open, m)
		} else {
			open = append(open, mdEntity{marker: m, pos: i})
		}
		i += len(m) - 1
	}
	return open
}

func isOpen(open []mdEntity, marker string) bool {
	for _, e := range open {
		if e.marker == marker {
			return true
		}
	}
	return false
}

func closeEntity(open []mdEntity, marker string) []mdEntity {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].marker == marker {
			return append(open[:i:i], open[i+1:]...)
		}
	}
	return open
}

// markdownCut adjusts a MarkdownV2 cut at end. Links and code cannot be
// split, so the cut moves before them. Emphasis entities open at the cut are
// returned to be closed and reopened, unless they would be left empty, in
// which case the cut moves before their marker too.
func markdownCut(rs []rune, start, end int) (int, []mdEntity) {
	open := scanMarkdown(rs, start, end)
	for i, e := range open {
		if !e.emphasis() && e.pos > start {
			end = e.pos
			open = open[:i]
			break
		}
	}
	for len(open) > 0 {
		last := open[len(open)-1]
		body := strings.Trim(string(rs[min(last.pos+len(last.marker), end):end]), " \r\n")
		if body != "" || last.pos <= start {
			break
		}
		end = last.pos
		open = open[:len(open)-1]
	}

	carry := open[:0:0]
	for _, e := range open {
		if e.emphasis() {
			carry = append(carry, e)
		}
	}
	return end, carry
}

// joinMarkers appends markers to text, then next, inserting mdSeparator
// wherever two neighbours share a character so "_" + "__" is not read as
// "__" + "_".
func joinMarkers(text string, markers []string, next string) string {
	var b strings.Builder
	b.WriteString(text)
	prev := text
	for _, m := range markers {
		if prev != "" && prev[len(prev)-1] == m[0] {
			b.WriteString(mdSeparator)
		}
		b.WriteString(m)
		prev = m
	}
	if next != "" && prev != "" && prev[len(prev)-1] == next[0] {
		b.WriteString(mdSeparator)
	}
	return b.String()
}

// mdSeparator is ignored by Telegram and splits runs of identical marker
// characters.
const mdSeparator = "\r"
