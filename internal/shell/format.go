package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/glabrego/pona-cli/internal/diaspora"
	"github.com/glabrego/pona-cli/internal/render"
)

const (
	textWidth    = 72
	summaryWidth = 60
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "----------"
	}
	return t.UTC().Format(time.DateOnly)
}

func formatNotificationLine(number int, n diaspora.Notification) string {
	marker := " "
	if n.Unread {
		marker = "*"
	}
	return fmt.Sprintf("%2d.%s%s %s", number, marker, formatDate(n.CreatedAt), render.Summary(n.Text, textWidth))
}

func formatPostLine(number int, p *diaspora.Post) string {
	line := fmt.Sprintf("%2d. %s %s: %s", number, formatDate(p.CreatedAt), p.Author.Label(), render.Summary(p.Text, summaryWidth))
	if p.CommentsCount > 0 {
		line += fmt.Sprintf(" (%d)", p.CommentsCount)
	}
	return line
}

func formatPost(p *diaspora.Post) string {
	var b strings.Builder
	b.WriteString(p.Author.Label())
	if p.Author.Handle != "" && p.Author.Handle != p.Author.Label() {
		b.WriteString(" (" + p.Author.Handle + ")")
	}
	b.WriteString(", " + p.CreatedAt.UTC().Format("2006-01-02 15:04") + "\n\n")
	for _, line := range render.Wrap(p.Text, textWidth) {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	switch n := len(p.Comments); {
	case !p.CommentsLoaded:
		fmt.Fprintf(&b, "%d comments\n", p.CommentsCount)
	case n == 0:
		b.WriteString("There are no comments.\n")
	case n == 1:
		b.WriteString("There is 1 comment.\n")
	default:
		fmt.Fprintf(&b, "There are %d comments.\n", n)
	}
	return b.String()
}

func formatComment(number int, c *diaspora.Comment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%2d. %s, %s\n", number, c.Author.Label(), formatDate(c.CreatedAt))
	for _, line := range render.Wrap(c.Text, textWidth-4) {
		b.WriteString("    " + line + "\n")
	}
	return b.String()
}
