package main

import (
	"errors"
	"os"

	"github.com/simp-lee/epubsplit"
)

// Exit codes for the epubsplit CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every unit built
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or unit table
	ExitIO      = 3 // File not found, permission denied, missing fragment
	ExitSource  = 4 // Source archive unreadable or DRM protected
)

// exitCodeFor returns the appropriate exit code for an error.
// Source errors are checked first: a corrupt archive may also wrap an os error.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, epubsplit.ErrArchive) ||
		errors.Is(err, epubsplit.ErrDRMProtected) {
		return ExitSource
	}

	if errors.Is(err, errUsage) ||
		errors.Is(err, epubsplit.ErrConfig) ||
		errors.Is(err, epubsplit.ErrInvalidUnit) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, epubsplit.ErrFragmentNotFound) {
		return ExitIO
	}

	return ExitGeneral
}
