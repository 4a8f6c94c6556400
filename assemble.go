package epubsplit

import (
	"archive/zip"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/google/uuid"
)

// expectedMimetype is the required content of the "mimetype" entry.
const expectedMimetype = "application/epub+zip"

// Internal layout of every generated package.
const (
	opfPath     = "OEBPS/content.opf"
	chapterHref = "chapter.xhtml"
	styleHref   = "style.css"
	navHref     = "nav.xhtml"
)

// FileExt is the extension of generated package files.
const FileExt = ".epub"

// fragmentSeparator is placed between consecutive fragment bodies.
const fragmentSeparator = "\n<hr/>\n"

//go:embed templates/*
var templateFS embed.FS

// Stylesheet is the shared stylesheet embedded in every package.
var Stylesheet = mustReadTemplate("templates/style.css")

var documentTemplates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"escape": html.EscapeString}).
		ParseFS(templateFS, "templates/*.xhtml"),
)

func mustReadTemplate(name string) string {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// xhtmlData is the template input for nav.xhtml and chapter.xhtml.
// Title, Byline and Language are escaped by the templates; Body is
// inserted verbatim.
type xhtmlData struct {
	Title      string
	Language   string
	Byline     string
	Href       string
	Stylesheet string
	Body       string
}

// h2Pattern matches one level-2 heading element.
var h2Pattern = regexp.MustCompile(`(?is)<h2>(.*?)</h2>`)

// CombineBodies joins normalized fragment bodies in order with a
// horizontal rule between each pair.
func CombineBodies(bodies []string) string {
	return strings.Join(bodies, fragmentSeparator)
}

// PromoteTitle rewrites the first <h2>...</h2> of body into an <h1>.
// Later level-2 headings are section headings and stay as they are.
func PromoteTitle(body string) string {
	loc := h2Pattern.FindStringSubmatchIndex(body)
	if loc == nil {
		return body
	}
	return body[:loc[0]] + "<h1>" + body[loc[2]:loc[3]] + "</h1>" + body[loc[1]:]
}

// byline returns the attribution text shown above the chapter.
func (a Attribution) byline() string {
	if a.Byline != "" {
		return a.Byline
	}
	var parts []string
	for _, s := range []string{a.Creator, a.Source} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}

// Assemble builds the package for unit from its normalized fragment
// bodies. Each call generates a new random identifier.
func Assemble(unit Unit, bodies []string, attr Attribution) (*Document, error) {
	if unit.ID == "" {
		return nil, fmt.Errorf("epubsplit: assemble: empty unit id: %w", ErrInvalidUnit)
	}

	doc := &Document{
		Unit:       unit,
		Identifier: "urn:uuid:" + uuid.NewString(),
		Body:       PromoteTitle(CombineBodies(bodies)),
	}

	container, err := marshalContainer(opfPath)
	if err != nil {
		return nil, err
	}
	opf, err := marshalOPF(doc.Identifier, unit.Title, attr)
	if err != nil {
		return nil, err
	}

	data := xhtmlData{
		Title:      unit.Title,
		Language:   attr.Language,
		Byline:     attr.byline(),
		Href:       chapterHref,
		Stylesheet: styleHref,
		Body:       doc.Body,
	}
	nav, err := renderTemplate("nav.xhtml", data)
	if err != nil {
		return nil, err
	}
	chapter, err := renderTemplate("chapter.xhtml", data)
	if err != nil {
		return nil, err
	}

	oebps := path.Dir(opfPath)
	doc.parts = []part{
		{Name: containerPath, Data: container},
		{Name: opfPath, Data: opf},
		{Name: path.Join(oebps, navHref), Data: nav},
		{Name: path.Join(oebps, styleHref), Data: []byte(Stylesheet)},
		{Name: path.Join(oebps, chapterHref), Data: chapter},
	}
	return doc, nil
}

func renderTemplate(name string, data xhtmlData) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("epubsplit: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Part returns the serialized content of the named package entry.
func (d *Document) Part(name string) ([]byte, bool) {
	if name == "mimetype" {
		return []byte(expectedMimetype), true
	}
	for _, p := range d.parts {
		if p.Name == name {
			return p.Data, true
		}
	}
	return nil, false
}

// FileName returns the output file name of the document.
func (d *Document) FileName() string {
	return d.Unit.ID + FileExt
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the package as a ZIP archive. The mimetype entry comes
// first and is stored uncompressed so readers can detect the format at a
// fixed offset; every other entry is deflated.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return cw.n, fmt.Errorf("epubsplit: write mimetype: %w", err)
	}
	if _, err := io.WriteString(mt, expectedMimetype); err != nil {
		return cw.n, fmt.Errorf("epubsplit: write mimetype: %w", err)
	}

	for _, p := range d.parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: p.Name, Method: zip.Deflate})
		if err != nil {
			return cw.n, fmt.Errorf("epubsplit: write %s: %w", p.Name, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return cw.n, fmt.Errorf("epubsplit: write %s: %w", p.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("epubsplit: close package: %w", err)
	}
	return cw.n, nil
}

// WritePackage writes doc to dir/<unit-id>.epub, creating dir if needed
// and replacing any previous file. It returns the file path and size.
// A failed write removes the partial file.
func WritePackage(dir string, doc *Document) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("epubsplit: create %s: %w", dir, err)
	}
	target := filepath.Join(dir, doc.FileName())

	f, err := os.Create(target)
	if err != nil {
		return "", 0, fmt.Errorf("epubsplit: create %s: %w", target, err)
	}
	n, werr := doc.WriteTo(f)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(target)
		return "", 0, fmt.Errorf("epubsplit: write %s: %w", target, err)
	}
	return target, n, nil
}
