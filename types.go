package epubsplit

// Unit is one output package assembled from one or more source fragments.
type Unit struct {
	// ID names the output file (<ID>.epub) and must be unique in a table.
	ID string `yaml:"id"`

	// Title is the display title used in the manifest, nav and chapter.
	Title string `yaml:"title"`

	// Fragments lists source fragment file names in reading order.
	Fragments []string `yaml:"fragments"`
}

// Attribution holds the static metadata stamped into every package.
type Attribution struct {
	// Creator is the dc:creator value (the book's author).
	Creator string `yaml:"creator"`

	// Source is the dc:source value (the book the chapters come from).
	Source string `yaml:"source"`

	// Publisher is the optional dc:publisher value.
	Publisher string `yaml:"publisher"`

	// Language is the dc:language value (BCP 47 tag, e.g., "ru").
	Language string `yaml:"language"`

	// Byline is the text shown above the chapter body.
	// If empty, "Creator · Source" is used; with neither set no byline
	// paragraph is written.
	Byline string `yaml:"byline"`

	// Modified is the dcterms:modified timestamp (CCYY-MM-DDThh:mm:ssZ).
	// It is fixed rather than taken from the clock so rebuilds only differ
	// in their identifier.
	Modified string `yaml:"modified"`
}

// Document is an assembled package ready to be written.
// Create one with Assemble.
type Document struct {
	// Unit is the output unit this document was built from.
	Unit Unit

	// Identifier is the random urn:uuid identifier of this package instance.
	Identifier string

	// Body is the combined, title-promoted chapter content.
	Body string

	// parts holds the serialized package entries after mimetype, in write order.
	parts []part
}

// part is a single named entry in the package archive.
type part struct {
	Name string
	Data []byte
}

// Inspection is the result of reading a generated package back with Inspect.
type Inspection struct {
	// Mimetype is the content of the first ZIP entry.
	Mimetype string

	// Stored reports whether the mimetype entry is uncompressed.
	Stored bool

	// OPFPath is the manifest location found through container.xml.
	OPFPath string

	// Version is the package version attribute (e.g., "3.0").
	Version string

	// Identifier is the dc:identifier referenced by unique-identifier.
	Identifier string

	// Title is the dc:title value.
	Title string

	// Creator is the dc:creator value.
	Creator string

	// Language is the dc:language value.
	Language string

	// Manifest contains all manifest items in document order.
	Manifest []ManifestItem

	// Spine contains the idref of every spine itemref in reading order.
	Spine []string

	// NavTitles contains the labels of the nav document's toc entries.
	NavTitles []string

	// BodyText is the plain text of the chapter body, one line per block.
	BodyText string

	// Headings lists the chapter's headings in document order.
	Headings []Heading
}

// ManifestItem is an entry in the package manifest.
type ManifestItem struct {
	// ID is the unique identifier of this manifest item.
	ID string

	// Href is the file path relative to the OPF file location.
	Href string

	// MediaType is the MIME type of the resource.
	MediaType string

	// Properties contains space-separated property values (e.g., "nav").
	Properties string
}
