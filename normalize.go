package epubsplit

import "regexp"

// Stage is one whole-text rewrite of a fragment. Stages are pure: the
// output depends only on the input string.
type Stage struct {
	// Name identifies the stage in logs and tests.
	Name string

	// Apply rewrites the fragment. It must be total: input without the
	// stage's target pattern comes back unchanged.
	Apply func(string) string
}

// Normalizer cleans raw fragment documents. The zero value uses
// DefaultStages.
type Normalizer struct {
	// Stages run in order on the inner content of <body>. Later stages
	// assume earlier ones already fired.
	Stages []Stage
}

// bodyPattern captures the content of the first <body> element.
var bodyPattern = regexp.MustCompile(`(?s)<body[^>]*>(.*?)</body>`)

// The source book's markup schema. Only these exact class spellings are
// rewritten; anything else passes through.
var (
	spanPattern       = regexp.MustCompile(`</?span[^>]*>`)
	titleBlockPattern = regexp.MustCompile(`<div class="title6">\s*<p class="p">(.*?)</p>\s*</div>`)
	annotationPattern = regexp.MustCompile(`<div class="annotation">`)
	citationPattern   = regexp.MustCompile(`<div class="cite">`)
	divClosePattern   = regexp.MustCompile(`</div>`)
	plainParaPattern  = regexp.MustCompile(`<p class="p1?">`)
	emptyParaPattern  = regexp.MustCompile(`<p class="empty-line"\s*/>`)
	footnotePattern   = regexp.MustCompile(`<a[^>]*class="a"[^>]*>\[?\d+\]?</a>`)
)

// DefaultStages returns the rewrite stages for the source book's markup,
// in the order they must run.
func DefaultStages() []Stage {
	return []Stage{
		replaceStage("spans", spanPattern, ""),
		replaceStage("title", titleBlockPattern, "<h2>$1</h2>"),
		replaceStage("summary", annotationPattern, `<div class="summary">`),
		replaceStage("citation", citationPattern, "<blockquote>"),
		replaceStage("div-close", divClosePattern, ""),
		replaceStage("plain-paragraphs", plainParaPattern, "<p>"),
		replaceStage("empty-paragraphs", emptyParaPattern, "<br/>"),
		// <p class="subtitle"> is styled by the stylesheet and kept as-is.
		{Name: "subtitle", Apply: func(s string) string { return s }},
		replaceStage("footnotes", footnotePattern, ""),
		{Name: "quotes", Apply: BalanceQuotes},
	}
}

func replaceStage(name string, re *regexp.Regexp, repl string) Stage {
	return Stage{
		Name:  name,
		Apply: func(s string) string { return re.ReplaceAllString(s, repl) },
	}
}

// BodyContent returns the inner content of the fragment's <body> element.
// ok is false if the fragment has no body.
func BodyContent(raw string) (content string, ok bool) {
	m := bodyPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Normalize isolates the body of raw and runs every stage over it.
// A fragment without a body yields "".
func (n Normalizer) Normalize(raw string) string {
	s, ok := BodyContent(raw)
	if !ok {
		return ""
	}
	stages := n.Stages
	if stages == nil {
		stages = DefaultStages()
	}
	for _, st := range stages {
		s = st.Apply(s)
	}
	return s
}

// Normalize runs the default normalizer over raw.
func Normalize(raw string) string {
	return Normalizer{}.Normalize(raw)
}
