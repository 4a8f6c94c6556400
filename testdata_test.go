package epubsplit

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// zipEntry is one entry for buildZipBytes. A zero Method means Deflate.
type zipEntry struct {
	Name   string
	Body   string
	Method uint16
}

// buildZipBytes writes entries, in order, into an in-memory ZIP archive.
// It calls t.Fatal on any error.
func buildZipBytes(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		method := e.Method
		if method == 0 {
			method = zip.Deflate
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			t.Fatalf("buildZipBytes: create %s: %v", e.Name, err)
		}
		if _, err := io.WriteString(fw, e.Body); err != nil {
			t.Fatalf("buildZipBytes: write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content) and returns a *zip.Reader over the resulting bytes.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	var entries []zipEntry
	for name, content := range files {
		entries = append(entries, zipEntry{Name: name, Body: content})
	}
	data := buildZipBytes(t, entries)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// writeTestFile writes data to dir/name and returns the path.
func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("writeTestFile: mkdir: %v", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("writeTestFile: %v", err)
	}
	return p
}

// fragmentDoc wraps body markup in a minimal source XHTML document.
func fragmentDoc(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>source</title></head>
<body>` + body + `</body>
</html>
`
}

// buildSourceEPub writes a source ePub whose fragments live under
// DefaultFragmentDir and returns its path.
func buildSourceEPub(t *testing.T, fragments map[string]string) string {
	t.Helper()
	entries := []zipEntry{
		{Name: "mimetype", Body: expectedMimetype, Method: zip.Store},
		{Name: containerPath, Body: `<?xml version="1.0"?><container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container"><rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles></container>`},
		{Name: "OEBPS/content.opf", Body: `<package version="2.0"/>`},
	}
	for name, body := range fragments {
		entries = append(entries, zipEntry{Name: DefaultFragmentDir + "/" + name, Body: body})
	}
	return writeTestFile(t, t.TempDir(), "source.epub", buildZipBytes(t, entries))
}

// testConfig returns a Config that reads src and writes under a temp dir.
func testConfig(t *testing.T, src string, units ...Unit) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Source = src
	cfg.WorkDir = filepath.Join(dir, "work")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Attribution = testAttribution
	cfg.Units = units
	return cfg
}
