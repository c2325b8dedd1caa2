package digest

import "errors"

// Algorithm names a digest and doubles as the file
// extension of its sidecar.
type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "b2"
)

var (
	ErrMismatch     = errors.New("checksums do not match")
	ErrEmptySidecar = errors.New("sidecar contains no digest")
)
