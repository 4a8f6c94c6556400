package epubsplit

import "strings"

const (
	quoteOpen   = "<blockquote>"
	quoteClose  = "</blockquote>"
	headingOpen = "<h2>"
)

// quoteState is the state of the blockquote balancer.
type quoteState int

const (
	outsideQuote quoteState = iota
	insideQuote
)

// quoteBalancer tracks whether a quotation block is open while the body is
// scanned line by line. Closing markers it emits go on their own line.
type quoteBalancer struct {
	state quoteState
	out   []string
}

// line feeds one line through the machine. A line that opens a quote ends
// the one already open; a line with a level-2 heading ends an open quote
// before the heading. A line whose last quote marker is an explicit close
// leaves the machine outside.
func (b *quoteBalancer) line(l string) {
	if strings.Contains(l, quoteOpen) {
		if b.state == insideQuote {
			b.out = append(b.out, quoteClose)
		}
		b.state = insideQuote
	}
	if strings.Contains(l, headingOpen) && b.state == insideQuote {
		b.out = append(b.out, quoteClose)
		b.state = outsideQuote
	}
	b.out = append(b.out, l)
	if c := strings.LastIndex(l, quoteClose); c >= 0 && c > strings.LastIndex(l, quoteOpen) {
		b.state = outsideQuote
	}
}

// finish closes a quote still open at end of input.
func (b *quoteBalancer) finish() string {
	if b.state == insideQuote {
		b.out = append(b.out, quoteClose)
		b.state = outsideQuote
	}
	return strings.Join(b.out, "\n")
}

// BalanceQuotes inserts the </blockquote> lines the source never writes:
// before a line opening a new quote while one is open, before a line with
// an <h2> while one is open, and once at the end if a quote is still open.
func BalanceQuotes(s string) string {
	lines := strings.Split(s, "\n")
	b := &quoteBalancer{out: make([]string, 0, len(lines)+1)}
	for _, l := range lines {
		b.line(l)
	}
	return b.finish()
}
