// Package epubsplit re-packages chapter ranges of one source ePub into
// standalone single-chapter ePub 3 files, one per configured [Unit].
//
// The work happens in three stages:
//
//   - [Extract] unpacks the source archive into a working directory.
//   - [Normalizer] cleans one raw XHTML fragment with an ordered list of
//     [Stage] rewrites, ending with the blockquote balancer.
//   - [Assemble] joins the normalized fragments, promotes the first
//     subheading to the document title and builds a [Document] whose
//     [Document.WriteTo] emits the ZIP package.
//
// [Builder] runs the three stages for every unit of a [Config]:
//
//	cfg, err := epubsplit.LoadConfig("units.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := epubsplit.NewBuilder(epubsplit.Options{}).Run(cfg)
//
// # Package layout
//
// Every generated file contains, in order: a stored "mimetype" entry,
// META-INF/container.xml, OEBPS/content.opf, OEBPS/nav.xhtml,
// OEBPS/style.css and OEBPS/chapter.xhtml. [Inspect] reads a file back
// and checks that layout.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - [ErrArchive] – the source is not a readable ZIP archive
//   - [ErrDRMProtected] – the source is DRM encrypted
//   - [ErrFragmentNotFound] – a unit references a missing fragment
//   - [ErrInvalidUnit] – the unit table failed validation
//   - [ErrInvalidPackage] – a generated file breaks the package contract
//   - [ErrConfig] – the configuration file is unreadable
//
// A fragment without a <body> is not an error: it normalizes to an empty
// string and the unit is still built.
package epubsplit
