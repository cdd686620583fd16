package fetcher

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	strippedSelector = "script, style"
	blockSelector    = "p, li, h1, h2, h3"
	blockSeparator   = "\n\n"
)

// ExtractText flattens a rendered document into its block-level text. Blocks
// appear in document order, exact duplicates (from nested markup such as
// <li><p>..</p></li>) are kept once, and blocks are separated by a blank line.
func ExtractText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find(strippedSelector).Remove()

	seen := make(map[string]struct{})
	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		text := blockText(s)
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		blocks = append(blocks, text)
	})
	return strings.Join(blocks, blockSeparator)
}

// blockText joins the trimmed text nodes under s with single spaces.
func blockText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
