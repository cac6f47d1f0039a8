package diaspora

import (
	"errors"
	"fmt"
	"io"
	"strings"

	nethtml "golang.org/x/net/html"
)

var errNoToken = errors.New("csrf token not found")

// csrfToken extracts the content of <meta name="csrf-token"> from a page.
func csrfToken(r io.Reader) (string, error) {
	z := nethtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return "", fmt.Errorf("parse page: %w", err)
			}
			return "", errNoToken
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "body" {
				return "", errNoToken
			}
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if name == "csrf-token" && content != "" {
				return content, nil
			}
		}
	}
}
