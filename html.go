package epubsplit

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Heading is a heading element found in a chapter document.
type Heading struct {
	// Level is 1 for <h1>, 2 for <h2>, and so on.
	Level int

	// Text is the whitespace-collapsed heading text.
	Text string
}

// blockTags start a new line of extracted text.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// chapterText walks an XHTML document with the x/net/html tokenizer and
// returns the text of its <body> (one line per block element) together with
// its headings in document order.
func chapterText(data []byte) (string, []Heading, error) {
	z := html.NewTokenizer(bytes.NewReader(data))

	var (
		lines    []string
		line     strings.Builder
		headings []Heading
		heading  *Heading
		inBody   bool
	)
	flush := func() {
		if s := strings.TrimSpace(collapseWhitespace(line.String())); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", nil, err
			}
			flush()
			return strings.Join(lines, "\n"), headings, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			a := atom.Lookup(tn)
			if a == atom.Body {
				inBody = true
				continue
			}
			if !inBody {
				continue
			}
			if blockTags[a] {
				flush()
			}
			if lvl, ok := headingLevels[a]; ok && tt == html.StartTagToken {
				headings = append(headings, Heading{Level: lvl})
				heading = &headings[len(headings)-1]
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			a := atom.Lookup(tn)
			if a == atom.Body {
				inBody = false
				continue
			}
			if blockTags[a] {
				flush()
			}
			if _, ok := headingLevels[a]; ok && heading != nil {
				heading.Text = strings.TrimSpace(collapseWhitespace(heading.Text))
				heading = nil
			}

		case html.TextToken:
			if !inBody {
				continue
			}
			text := string(z.Text())
			line.WriteString(text)
			if heading != nil {
				heading.Text += text
			}
		}
	}
}

// collapseWhitespace replaces runs of whitespace with a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
