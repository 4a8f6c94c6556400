package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simp-lee/epubsplit"
)

// writeSource writes a source ePub whose OPS directory holds the given
// fragment documents.
func writeSource(t *testing.T, dir string, fragments map[string]string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	mt.Write([]byte("application/epub+zip"))
	for name, body := range fragments {
		w, err := zw.Create("OPS/" + name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, "book.epub")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const testUnits = `
source: book.epub
workDir: work
outputDir: out
attribution:
  creator: Author
  source: The Source Book
units:
  - id: ch01
    title: 第一章
    fragments: [part0001.xhtml]
  - id: ch02
    title: 第二章
    fragments: [part0002.xhtml]
`

// setupRun writes a source and config into a temp dir and returns the
// config path.
func setupRun(t *testing.T, fragments map[string]string) (dir, config string) {
	t.Helper()
	dir = t.TempDir()
	writeSource(t, dir, fragments)
	config = filepath.Join(dir, "units.yaml")
	if err := os.WriteFile(config, []byte(testUnits), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, config
}

var bothFragments = map[string]string{
	"part0001.xhtml": `<html><body><div class="text"><p class="p">one</p></div></body></html>`,
	"part0002.xhtml": `<html><body><div class="text"><p class="p">two</p></div></body></html>`,
}

func TestRun_Builds(t *testing.T) {
	dir, config := setupRun(t, bothFragments)
	var stdout, stderr bytes.Buffer

	if err := run([]string{"-c", config, "--verify"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error: %v\nstderr:\n%s", err, stderr.String())
	}
	for _, id := range []string{"ch01", "ch02"} {
		in, err := epubsplit.Inspect(filepath.Join(dir, "out", id+".epub"))
		if err != nil {
			t.Fatalf("Inspect(%s) error: %v", id, err)
		}
		if in.Creator != "Author" {
			t.Errorf("%s Creator = %q", id, in.Creator)
		}
	}
	if !strings.Contains(stderr.String(), "wrote package") || !strings.Contains(stderr.String(), "done") {
		t.Errorf("stderr missing progress logs:\n%s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "bytes") {
		t.Errorf("done log missing total bytes:\n%s", stderr.String())
	}
}

func TestRun_SelectUnit(t *testing.T) {
	dir, config := setupRun(t, bothFragments)
	var stdout, stderr bytes.Buffer

	if err := run([]string{"-c", config, "-u", "ch02", "-q"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "ch02.epub")); err != nil {
		t.Errorf("ch02 not built: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "ch01.epub")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ch01 built although not selected: %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet run logged:\n%s", stderr.String())
	}
}

func TestRun_UnknownUnit(t *testing.T) {
	_, config := setupRun(t, bothFragments)
	err := run([]string{"-c", config, "-u", "nope"}, new(bytes.Buffer), new(bytes.Buffer))
	if exitCodeFor(err) != ExitUsage {
		t.Errorf("exit code = %d (%v), want %d", exitCodeFor(err), err, ExitUsage)
	}
}

func TestRun_MissingFragment(t *testing.T) {
	dir, config := setupRun(t, map[string]string{"part0001.xhtml": bothFragments["part0001.xhtml"]})
	var stderr bytes.Buffer

	err := run([]string{"-c", config}, new(bytes.Buffer), &stderr)
	if exitCodeFor(err) != ExitIO {
		t.Errorf("exit code = %d (%v), want %d", exitCodeFor(err), err, ExitIO)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "ch01.epub")); err != nil {
		t.Errorf("ch01 not built despite later failure: %v", err)
	}
	if !strings.Contains(stderr.String(), "unit failed") {
		t.Errorf("stderr missing failure log:\n%s", stderr.String())
	}
}

func TestRun_OutputOverride(t *testing.T) {
	_, config := setupRun(t, bothFragments)
	out := filepath.Join(t.TempDir(), "elsewhere")

	if err := run([]string{"-c", config, "-o", out, "-q"}, new(bytes.Buffer), new(bytes.Buffer)); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "ch01.epub")); err != nil {
		t.Errorf("override output dir not used: %v", err)
	}
}

func TestRun_DumpConfig(t *testing.T) {
	dir, config := setupRun(t, bothFragments)
	var stdout bytes.Buffer

	if err := run([]string{"-c", config, "--dump-config"}, &stdout, new(bytes.Buffer)); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	for _, want := range []string{"id: ch01", "id: ch02", "fragmentDir: OPS", "language: ru"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("dumped config missing %q:\n%s", want, stdout.String())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("dump-config built packages: %v", err)
	}
}

func TestRun_BuiltinTable(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, map[string]string{
		"ch1-6.xhtml": "<html><body class=\"calibre\">\n<div class=\"title6\">\n  <p class=\"p\">1. С чего начать</p>\n</div>\n<p class=\"p\">Текст</p>\n</body></html>",
	})
	out := filepath.Join(dir, "books")
	args := []string{"--source", src, "--work-dir", filepath.Join(dir, "work"), "-o", out, "-u", "method-values", "-q"}

	if err := run(args, new(bytes.Buffer), new(bytes.Buffer)); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	in, err := epubsplit.Inspect(filepath.Join(out, "method-values.epub"))
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if in.Title != "1. С чего начать" || in.Creator != "Крис Бейли" || in.Language != "ru" {
		t.Errorf("metadata = %q/%q/%q", in.Title, in.Creator, in.Language)
	}
	if !strings.HasPrefix(in.BodyText, "Из книги: «Мой продуктивный год» – Крис Бейли (2016)\n1. С чего начать\nТекст") {
		t.Errorf("BodyText = %q", in.BodyText)
	}
}

func TestRun_DumpBuiltinConfig(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--source", "book.epub", "--dump-config"}, &stdout, new(bytes.Buffer)); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if n := strings.Count(stdout.String(), "- id: method-"); n != 25 {
		t.Errorf("dumped %d built-in units, want 25:\n%s", n, stdout.String())
	}
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"--version"}, &stdout, new(bytes.Buffer)); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "epubsplit "+Version {
		t.Errorf("version output = %q", got)
	}
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	if err := run([]string{"--help"}, new(bytes.Buffer), &stderr); err != nil {
		t.Errorf("run(--help) error = %v, want nil", err)
	}
	if !strings.Contains(stderr.String(), "--config") {
		t.Errorf("help output missing flags:\n%s", stderr.String())
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name           string
		verbose, quiet bool
		wantInfo       bool
		wantDebug      bool
	}{
		{"default", false, false, true, false},
		{"verbose", true, false, true, true},
		{"quiet", false, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.verbose, tt.quiet)
			log.Info("info message")
			log.Debug("debug message")
			log.Error("error message")

			out := buf.String()
			if got := strings.Contains(out, "info message"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "error message") {
				t.Error("error not logged")
			}
		})
	}
}
