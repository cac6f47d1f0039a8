// Package render turns pod markup into plain terminal text.
package render

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	nethtml "golang.org/x/net/html"
)

// PlainText renders an HTML fragment as plain text. Block elements and <br>
// start new lines, whitespace inside a line is collapsed, links keep only
// their text.
func PlainText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(raw))
	}
	body := findBodyNode(doc)
	if body == nil {
		return strings.TrimSpace(html.UnescapeString(raw))
	}

	var b strings.Builder
	writeNode(&b, body)

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(trimBlankLines(lines), "\n")
}

func writeNode(b *strings.Builder, node *nethtml.Node) {
	switch node.Type {
	case nethtml.TextNode:
		b.WriteString(node.Data)
		return
	case nethtml.ElementNode:
	default:
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			writeNode(b, child)
		}
		return
	}

	tag := strings.ToLower(node.Data)
	switch tag {
	case "script", "style", "noscript":
		return
	case "br":
		b.WriteString("\n")
		return
	case "img":
		if alt := nodeAttr(node, "alt"); alt != "" {
			b.WriteString("[" + alt + "]")
		}
		return
	}

	block := isBlockElement(tag)
	if block {
		b.WriteString("\n")
	}
	if tag == "li" {
		b.WriteString("- ")
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeNode(b, child)
	}
	if block {
		b.WriteString("\n")
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "blockquote", "pre", "ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6", "hr", "table", "tr":
		return true
	}
	return false
}

// Wrap breaks text into lines of at most width cells, keeping paragraph
// breaks. Words longer than width are split.
func Wrap(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	wrapped := wrap.String(wordwrap.String(text, width), width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

// Summary returns the first non-blank line of text, truncated to maxLen runes.
func Summary(text string, maxLen int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			return Truncate(line, maxLen)
		}
	}
	return ""
}

func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func trimBlankLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}

func findBodyNode(node *nethtml.Node) *nethtml.Node {
	if node == nil {
		return nil
	}
	if node.Type == nethtml.ElementNode && strings.EqualFold(node.Data, "body") {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBodyNode(child); found != nil {
			return found
		}
	}
	return nil
}

func nodeAttr(node *nethtml.Node, name string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}
