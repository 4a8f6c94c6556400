package epubsplit

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// navEntry is one <li><a> entry of a nav document's toc.
type navEntry struct {
	Title string
	Href  string
}

// parseNavDocument parses an ePub 3 XHTML nav document and returns the
// entries of its epub:type="toc" list. Hrefs are resolved against navPath.
func parseNavDocument(data []byte, navPath string) ([]navEntry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("epubsplit: parse nav document: %w", err)
	}

	nav := findElementFunc(doc, func(n *html.Node) bool {
		return n.Data == "nav" && hasEpubType(n, "toc")
	})
	if nav == nil {
		return nil, nil
	}

	var entries []navEntry
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			entries = append(entries, navEntry{
				Title: strings.TrimSpace(nodeTextContent(n)),
				Href:  resolveRelativePath(navPath, hrefWithoutFragment(nodeAttr(n, "href"))),
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(nav)
	return entries, nil
}

// findElementFunc returns the first element, depth first, for which match
// reports true.
func findElementFunc(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElementFunc(c, match); found != nil {
			return found
		}
	}
	return nil
}

// hasEpubType checks whether n has an epub:type attribute containing the
// given token.
func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(nodeAttr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

// nodeAttr returns the value of the attribute with the given key on n.
func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeTextContent recursively collects all text content within a node.
func nodeTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeTextContent(c))
	}
	return sb.String()
}

// hrefWithoutFragment strips a "#fragment" suffix from href.
func hrefWithoutFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
