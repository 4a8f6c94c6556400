package epubsplit

import (
	"encoding/xml"
	"fmt"
)

const (
	opfNamespace     = "http://www.idpf.org/2007/opf"
	dcNamespace      = "http://purl.org/dc/elements/1.1/"
	opfVersion       = "3.0"
	uniqueIdentifier = "bookid"
)

// opfDocument is the <package> element written into new packages.
// encoding/xml writes prefixed names literally, so dc: elements are tagged
// with their prefix and the namespace is declared on <metadata>.
type opfDocument struct {
	XMLName          xml.Name      `xml:"package"`
	Xmlns            string        `xml:"xmlns,attr"`
	Version          string        `xml:"version,attr"`
	UniqueIdentifier string        `xml:"unique-identifier,attr"`
	Lang             string        `xml:"xml:lang,attr,omitempty"`
	Metadata         opfWriterMeta `xml:"metadata"`
	Manifest         opfManifest   `xml:"manifest"`
	Spine            opfSpine      `xml:"spine"`
}

// opfWriterMeta holds the Dublin Core metadata written into new packages.
type opfWriterMeta struct {
	XmlnsDC    string       `xml:"xmlns:dc,attr"`
	Identifier opfDCElement `xml:"dc:identifier"`
	Title      string       `xml:"dc:title"`
	Creator    string       `xml:"dc:creator,omitempty"`
	Publisher  string       `xml:"dc:publisher,omitempty"`
	Source     string       `xml:"dc:source,omitempty"`
	Language   string       `xml:"dc:language"`
	Metas      []opfMeta    `xml:"meta"`
}

// opfPackage represents the root <package> element as decoded by Inspect.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
}

// opfMetadata holds the raw metadata elements decoded from an OPF file.
type opfMetadata struct {
	Titles      []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Metas       []opfMeta      `xml:"meta"`
}

// opfDCElement holds a Dublin Core element with its xml id.
type opfDCElement struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr,omitempty"`
}

// opfMeta represents an ePub 3 <meta property="...">value</meta> element.
type opfMeta struct {
	Property string `xml:"property,attr"`
	Value    string `xml:",chardata"`
}

// opfManifest wraps the <manifest> element.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents a single <item> in the manifest.
type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

// opfSpine wraps the <spine> element.
type opfSpine struct {
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

// opfSpineItemRef represents a single <itemref> in the spine.
type opfSpineItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// packageManifest is the fixed manifest of every generated package.
// The chapter is the only spine item.
var packageManifest = opfManifest{Items: []opfManifestItem{
	{ID: "chapter", Href: chapterHref, MediaType: "application/xhtml+xml"},
	{ID: "style", Href: styleHref, MediaType: "text/css"},
	{ID: "nav", Href: navHref, MediaType: "application/xhtml+xml", Properties: "nav"},
}}

// marshalOPF renders the package document. Text values are escaped by
// encoding/xml, so markup in the title cannot leak into the manifest.
func marshalOPF(identifier, title string, attr Attribution) ([]byte, error) {
	doc := opfDocument{
		Xmlns:            opfNamespace,
		Version:          opfVersion,
		UniqueIdentifier: uniqueIdentifier,
		Lang:             attr.Language,
		Metadata: opfWriterMeta{
			XmlnsDC:    dcNamespace,
			Identifier: opfDCElement{Value: identifier, ID: uniqueIdentifier},
			Title:      title,
			Creator:    attr.Creator,
			Publisher:  attr.Publisher,
			Source:     attr.Source,
			Language:   attr.Language,
			Metas:      []opfMeta{{Property: "dcterms:modified", Value: attr.Modified}},
		},
		Manifest: opfManifest{Items: append([]opfManifestItem(nil), packageManifest.Items...)},
		Spine:    opfSpine{ItemRefs: []opfSpineItemRef{{IDRef: "chapter"}}},
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("epubsplit: marshal OPF: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// parseOPF parses the OPF file content and returns the parsed package structure.
func parseOPF(data []byte) (*opfPackage, error) {
	data = stripBOM(data)

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("epubsplit: parse OPF: %w: %w", ErrInvalidPackage, err)
	}
	return &pkg, nil
}

// identifierValue returns the dc:identifier whose id matches the package's
// unique-identifier attribute, or the first identifier if none matches.
func (p *opfPackage) identifierValue() string {
	for _, id := range p.Metadata.Identifiers {
		if id.ID == p.UniqueIdentifier {
			return id.Value
		}
	}
	if len(p.Metadata.Identifiers) > 0 {
		return p.Metadata.Identifiers[0].Value
	}
	return ""
}

func firstValue(elems []opfDCElement) string {
	if len(elems) == 0 {
		return ""
	}
	return elems[0].Value
}
