package epubsplit

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
)

// Inspect opens the package at path and checks it against the layout
// Assemble produces. Any violation is reported as ErrInvalidPackage.
func Inspect(name string) (*Inspection, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("epubsplit: open %s: %w", name, err)
	}
	defer zrc.Close()
	return inspectZip(&zrc.Reader)
}

// InspectReader is like Inspect but reads the package from r.
func InspectReader(r io.ReaderAt, size int64) (*Inspection, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epubsplit: open zip: %w: %w", ErrInvalidPackage, err)
	}
	return inspectZip(zr)
}

func inspectZip(zr *zip.Reader) (*Inspection, error) {
	in := &Inspection{}
	if err := in.readMimetype(zr); err != nil {
		return nil, err
	}

	opfFile, err := parseContainer(zr)
	if err != nil {
		return nil, err
	}
	in.OPFPath = opfFile

	f := findFileInsensitive(zr, opfFile)
	if f == nil {
		return nil, fmt.Errorf("epubsplit: OPF file not found in archive: %s: %w", opfFile, ErrInvalidPackage)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, fmt.Errorf("epubsplit: read OPF file: %w", err)
	}
	pkg, err := parseOPF(data)
	if err != nil {
		return nil, err
	}

	in.Version = pkg.Version
	in.Identifier = pkg.identifierValue()
	in.Title = firstValue(pkg.Metadata.Titles)
	in.Creator = firstValue(pkg.Metadata.Creators)
	in.Language = firstValue(pkg.Metadata.Languages)
	for _, it := range pkg.Manifest.Items {
		in.Manifest = append(in.Manifest, ManifestItem(it))
	}
	for _, ref := range pkg.Spine.ItemRefs {
		in.Spine = append(in.Spine, ref.IDRef)
	}

	body, nav, err := in.checkManifest()
	if err != nil {
		return nil, err
	}
	if err := in.readNav(zr, nav, body); err != nil {
		return nil, err
	}
	if err := in.readBody(zr, body); err != nil {
		return nil, err
	}
	return in, nil
}

// readMimetype checks that the first entry is named "mimetype", is stored
// without compression and holds exactly the ePub marker.
func (in *Inspection) readMimetype(zr *zip.Reader) error {
	if len(zr.File) == 0 {
		return fmt.Errorf("epubsplit: empty archive: %w", ErrInvalidPackage)
	}
	first := zr.File[0]
	if first.Name != "mimetype" {
		return fmt.Errorf("epubsplit: first entry is %q, not mimetype: %w", first.Name, ErrInvalidPackage)
	}
	data, err := readZipFile(first)
	if err != nil {
		return err
	}
	in.Mimetype = string(data)
	in.Stored = first.Method == zip.Store
	if !in.Stored {
		return fmt.Errorf("epubsplit: mimetype entry is compressed: %w", ErrInvalidPackage)
	}
	if in.Mimetype != expectedMimetype {
		return fmt.Errorf("epubsplit: unexpected mimetype %q: %w", in.Mimetype, ErrInvalidPackage)
	}
	return nil
}

// checkManifest enforces one spine entry pointing at the single body item,
// one stylesheet and one nav item.
func (in *Inspection) checkManifest() (body, nav ManifestItem, err error) {
	var bodies, styles, navs []ManifestItem
	for _, it := range in.Manifest {
		switch {
		case slices.Contains(strings.Fields(it.Properties), "nav"):
			navs = append(navs, it)
		case it.MediaType == "application/xhtml+xml":
			bodies = append(bodies, it)
		case it.MediaType == "text/css":
			styles = append(styles, it)
		}
	}
	if len(bodies) != 1 || len(styles) != 1 || len(navs) != 1 {
		return body, nav, fmt.Errorf("epubsplit: manifest has %d body, %d style, %d nav items: %w",
			len(bodies), len(styles), len(navs), ErrInvalidPackage)
	}
	if len(in.Spine) != 1 || in.Spine[0] != bodies[0].ID {
		return body, nav, fmt.Errorf("epubsplit: spine %v does not reference only %q: %w", in.Spine, bodies[0].ID, ErrInvalidPackage)
	}
	return bodies[0], navs[0], nil
}

// readNav collects the toc labels and checks that every entry links to the
// body document.
func (in *Inspection) readNav(zr *zip.Reader, nav, body ManifestItem) error {
	opfDir := path.Dir(in.OPFPath)
	navPath := path.Join(opfDir, nav.Href)
	data, err := readItem(zr, navPath)
	if err != nil {
		return err
	}
	entries, err := parseNavDocument(data, navPath)
	if err != nil {
		return err
	}
	bodyPath := path.Join(opfDir, body.Href)
	for _, e := range entries {
		if e.Href != bodyPath {
			return fmt.Errorf("epubsplit: nav entry %q links to %q, not %q: %w", e.Title, e.Href, bodyPath, ErrInvalidPackage)
		}
		in.NavTitles = append(in.NavTitles, e.Title)
	}
	return nil
}

func (in *Inspection) readBody(zr *zip.Reader, body ManifestItem) error {
	data, err := readItem(zr, path.Join(path.Dir(in.OPFPath), body.Href))
	if err != nil {
		return err
	}
	text, headings, err := chapterText(data)
	if err != nil {
		return fmt.Errorf("epubsplit: parse %s: %w", body.Href, err)
	}
	in.BodyText = text
	in.Headings = headings
	return nil
}

func readItem(zr *zip.Reader, name string) ([]byte, error) {
	f := findFileInsensitive(zr, name)
	if f == nil {
		return nil, fmt.Errorf("epubsplit: %s missing: %w", name, ErrInvalidPackage)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, err
	}
	return stripBOM(data), nil
}
