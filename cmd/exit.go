package cmd

import (
	"errors"

	"github.com/Felis-Linux/fpkg/pkg/digest"
	"github.com/Felis-Linux/fpkg/pkg/lockfile"
	"github.com/Felis-Linux/fpkg/pkg/repository"
	"github.com/Felis-Linux/fpkg/pkg/transaction"
)

// ExitCode maps an error onto the exit status of the process.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, lockfile.ErrLocked):
		return 249
	case errors.Is(err, repository.ErrMissingIndexDigest), errors.Is(err, repository.ErrIndexMissing):
		return 250
	case errors.Is(err, digest.ErrMismatch):
		return 251
	case errors.Is(err, repository.ErrPackageNotFound):
		return 252
	case errors.Is(err, transaction.ErrConflict), errors.Is(err, transaction.ErrFileOverlap):
		return 253
	case errors.Is(err, ErrDeclined):
		return 254
	case errors.Is(err, ErrNotRoot):
		return 255
	default:
		return 1
	}
}
