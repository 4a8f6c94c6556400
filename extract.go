package epubsplit

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extraction summarizes an Extract call.
type Extraction struct {
	// Files is the number of regular files written.
	Files int

	// Bytes is the total decompressed size written.
	Bytes int64

	// ObfuscatedFonts reports whether the source uses font obfuscation.
	// Obfuscated fonts are extracted as-is.
	ObfuscatedFonts bool
}

// Extract unpacks every entry of the ZIP archive at src into dst, creating
// dst if needed and overwriting files that already exist. DRM-protected
// sources are rejected with ErrDRMProtected before anything is written.
func Extract(src, dst string) (Extraction, error) {
	zrc, err := zip.OpenReader(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return Extraction{}, fmt.Errorf("epubsplit: open %s: %w", src, err)
		}
		return Extraction{}, fmt.Errorf("epubsplit: open %s: %w: %w", src, ErrArchive, err)
	}
	defer zrc.Close()

	return extractZip(&zrc.Reader, dst)
}

func extractZip(zr *zip.Reader, dst string) (Extraction, error) {
	var ex Extraction

	fonts, err := sourceEncryption(zr)
	if err != nil {
		return ex, err
	}
	ex.ObfuscatedFonts = fonts

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return ex, fmt.Errorf("epubsplit: create %s: %w", dst, err)
	}

	for _, f := range zr.File {
		if !isSafePath(f.Name) {
			return ex, fmt.Errorf("epubsplit: unsafe zip entry path %s: %w", f.Name, ErrArchive)
		}
		target := filepath.Join(dst, filepath.FromSlash(strings.ReplaceAll(f.Name, "\\", "/")))

		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ex, fmt.Errorf("epubsplit: create %s: %w", target, err)
			}
			continue
		}

		n, err := extractFile(f, target)
		if err != nil {
			return ex, err
		}
		ex.Files++
		ex.Bytes += n
	}
	return ex, nil
}

// extractFile writes a single ZIP entry to target, truncating any
// existing file.
func extractFile(f *zip.File, target string) (int64, error) {
	if f.UncompressedSize64 > uint64(maxDecompressSize) {
		return 0, fmt.Errorf("epubsplit: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, maxDecompressSize)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("epubsplit: create %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("epubsplit: open zip entry %s: %w: %w", f.Name, ErrArchive, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("epubsplit: create %s: %w", target, err)
	}

	n, copyErr := copyZipEntry(out, rc, f.Name, maxDecompressSize)
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if closeErr != nil {
		return n, fmt.Errorf("epubsplit: write %s: %w", target, closeErr)
	}
	return n, nil
}
