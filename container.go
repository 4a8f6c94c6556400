package epubsplit

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// containerXML models the META-INF/container.xml file used to locate the OPF.
// The same struct is marshalled into new packages and decoded by Inspect.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	Xmlns     string     `xml:"xmlns,attr,omitempty"`
	Version   string     `xml:"version,attr,omitempty"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

// rootFile represents a single <rootfile> element inside container.xml.
type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

const (
	containerPath      = "META-INF/container.xml"
	containerNamespace = "urn:oasis:names:tc:opendocument:xmlns:container"
	opfMediaType       = "application/oebps-package+xml"
)

// marshalContainer renders a container.xml pointing at opfPath.
func marshalContainer(opfPath string) ([]byte, error) {
	c := containerXML{
		Xmlns:   containerNamespace,
		Version: "1.0",
		RootFiles: []rootFile{
			{FullPath: opfPath, MediaType: opfMediaType},
		},
	}
	data, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("epubsplit: marshal container.xml: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// parseContainer reads container.xml from zr and returns the full-path of
// the package rootfile. Generated packages always carry container.xml, so
// unlike a general reader there is no fallback scan for .opf entries.
func parseContainer(zr *zip.Reader) (string, error) {
	f := findFileInsensitive(zr, containerPath)
	if f == nil {
		return "", fmt.Errorf("epubsplit: %s missing: %w", containerPath, ErrInvalidPackage)
	}
	data, err := readZipFile(f)
	if err != nil {
		return "", fmt.Errorf("epubsplit: read container.xml: %w", err)
	}

	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("epubsplit: parse container.xml: %w: %w", ErrInvalidPackage, err)
	}

	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath != "" && strings.EqualFold(strings.TrimSpace(rf.MediaType), opfMediaType) {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("epubsplit: container.xml has no package rootfile: %w", ErrInvalidPackage)
}
