package epubsplit

import "errors"

// Sentinel errors returned by the epubsplit package.
var (
	// ErrArchive indicates the source archive could not be read as a ZIP
	// or contains an entry that would escape the extraction directory.
	ErrArchive = errors.New("epubsplit: invalid source archive")

	// ErrDRMProtected indicates the source ePub is DRM encrypted
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be split.
	ErrDRMProtected = errors.New("epubsplit: source is DRM protected")

	// ErrFragmentNotFound indicates a unit references a fragment file
	// that does not exist in the extracted source.
	ErrFragmentNotFound = errors.New("epubsplit: fragment not found")

	// ErrInvalidUnit indicates the unit table failed validation
	// (empty table, duplicate id, missing title or fragments).
	ErrInvalidUnit = errors.New("epubsplit: invalid unit")

	// ErrInvalidPackage indicates a generated artifact violates the
	// package structure contract when read back.
	ErrInvalidPackage = errors.New("epubsplit: invalid package")

	// ErrConfig indicates the configuration file could not be read or parsed.
	ErrConfig = errors.New("epubsplit: invalid config")
)
