package tgui

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t\r\n\f]+`)
	reBlankRun = regexp.MustCompile(`\n{3,}`)
)

func parseFragment(src string) []*xhtml.Node {
	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		// The tokenizer is lenient; an error here means a broken reader.
		return []*xhtml.Node{{Type: xhtml.TextNode, Data: src}}
	}
	return nodes
}

// HTMLToMD converts portal rich text into MarkdownV2 paragraphs. Text is
// escaped exactly once; formatting tags become MarkdownV2 entities.
func HTMLToMD(src string) M {
	var b strings.Builder
	for _, n := range parseFragment(src) {
		b.WriteString(mdNode(n, 0))
	}
	return M(tidyLines(b.String()))
}

// style is the set of entities open around a node. A tag whose entity is
// already open adds nothing: "**x**" is not bold, it is invalid.
type style uint8

const (
	styleBold style = 1 << iota
	styleItalic
	styleUnderline
	styleStrike
)

func mdChildren(n *xhtml.Node, st style) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(mdNode(c, st))
	}
	return b.String()
}

func mdNode(n *xhtml.Node, st style) string {
	switch n.Type {
	case xhtml.TextNode:
		t := reSpaces.ReplaceAllString(n.Data, " ")
		if strings.TrimSpace(t) == "" {
			if t == "" {
				return ""
			}
			return " "
		}
		return string(EscapeMD(t))
	case xhtml.ElementNode:
	default:
		return mdChildren(n, st)
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
		return ""
	case atom.Br:
		return "\n"
	case atom.P, atom.Div:
		return "\n\n" + mdChildren(n, st) + "\n\n"
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return "\n\n" + entity(n, st, styleBold, "*") + "\n\n"
	case atom.B, atom.Strong:
		return entity(n, st, styleBold, "*")
	case atom.I, atom.Em:
		return entity(n, st, styleItalic, "_")
	case atom.U, atom.Ins:
		return entity(n, st, styleUnderline, "__")
	case atom.S, atom.Strike, atom.Del:
		return entity(n, st, styleStrike, "~")
	case atom.A:
		href := strings.TrimSpace(attr(n, "href"))
		text := strings.TrimSpace(mdChildren(n, st))
		if href == "" {
			return text
		}
		if text == "" {
			return string(LinkMD("", href))
		}
		r := strings.NewReplacer(`\`, `\\`, `)`, `\)`)
		return "[" + text + "](" + r.Replace(href) + ")"
	case atom.Ul:
		return "\n" + mdList(n, false, st) + "\n"
	case atom.Ol:
		return "\n" + mdList(n, true, st) + "\n"
	case atom.Li:
		return "\n• " + strings.TrimSpace(mdChildren(n, st))
	default:
		return mdChildren(n, st)
	}
}

func entity(n *xhtml.Node, st, kind style, marker string) string {
	if st&kind != 0 {
		return mdChildren(n, st)
	}
	return emphasis(marker, mdChildren(n, st|kind))
}

func mdList(n *xhtml.Node, ordered bool, st style) string {
	var b strings.Builder
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xhtml.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		i++
		b.WriteString("\n")
		if ordered {
			b.WriteString(strconv.Itoa(i) + `\. `)
		} else {
			b.WriteString("• ")
		}
		b.WriteString(strings.TrimSpace(mdChildren(c, st)))
	}
	return b.String()
}

// mdSeparator splits adjacent markers of the same character. Telegram
// ignores it, and without it "___" is read greedily as "__" then "_".
const mdSeparator = "\r"

// emphasis wraps inner with marker, leaving surrounding spaces outside the
// entity. Empty content yields nothing: "**" is invalid MarkdownV2.
func emphasis(marker, inner string) string {
	trimmed := strings.TrimSpace(inner)
	if trimmed == "" {
		return inner
	}
	lead := inner[:strings.Index(inner, trimmed)]
	tail := inner[len(lead)+len(trimmed):]

	start, end := marker, marker
	if trimmed[0] == marker[0] {
		start += mdSeparator
	}
	if trimmed[len(trimmed)-1] == marker[0] {
		end = mdSeparator + end
	}
	return lead + start + trimmed + end + tail
}

// SanitizeHTML keeps only the tags Telegram's HTML parse mode accepts and
// escapes all text, so hostile markup cannot break the message.
func SanitizeHTML(src string) H {
	var b strings.Builder
	for _, n := range parseFragment(src) {
		b.WriteString(htmlNode(n))
	}
	return H(tidyLines(b.String()))
}

var keepTags = map[atom.Atom]bool{
	atom.B: true, atom.Strong: true,
	atom.I: true, atom.Em: true,
	atom.U: true, atom.Ins: true,
	atom.S: true, atom.Strike: true, atom.Del: true,
	atom.Code: true, atom.Pre: true, atom.Blockquote: true,
}

func htmlChildren(n *xhtml.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(htmlNode(c))
	}
	return b.String()
}

func htmlNode(n *xhtml.Node) string {
	switch n.Type {
	case xhtml.TextNode:
		return html.EscapeString(reSpaces.ReplaceAllString(n.Data, " "))
	case xhtml.ElementNode:
	default:
		return htmlChildren(n)
	}

	if keepTags[n.DataAtom] {
		tag := n.DataAtom.String()
		return "<" + tag + ">" + htmlChildren(n) + "</" + tag + ">"
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
		return ""
	case atom.Br:
		return "\n"
	case atom.P, atom.Div:
		return "\n" + htmlChildren(n) + "\n"
	case atom.Li:
		return "\n• " + strings.TrimSpace(htmlChildren(n))
	case atom.A:
		href := strings.TrimSpace(attr(n, "href"))
		inner := htmlChildren(n)
		if !safeHref(href) {
			return inner
		}
		return `<a href="` + html.EscapeString(href) + `">` + inner + "</a>"
	default:
		return htmlChildren(n)
	}
}

func safeHref(href string) bool {
	low := strings.ToLower(href)
	for _, p := range []string{"http://", "https://", "mailto:", "tg://"} {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// tidyLines trims each line and collapses runs of blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = reBlankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
