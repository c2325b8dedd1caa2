package downloader

import (
	"errors"

	"github.com/hashicorp/go-getter"
)

var ErrUnavailable = errors.New("resource could not be retrieved")

// MaxConcurrent is the number of transfers DownloadAll
// runs at the same time.
const MaxConcurrent = 8

type Downloader struct {
	progress getter.ProgressTracker
}

// Request describes a single resource to fetch.
type Request struct {
	Src string
	Dst string
	// Optional resources may be missing without
	// failing the batch.
	Optional bool
	// Progress attaches the progress observer to
	// this transfer.
	Progress bool
}

// Result is the outcome of a Request. Err is only ever set
// for optional requests, as any other failure aborts the batch.
type Result struct {
	Request
	Err error
}

func (r Result) OK() bool {
	return r.Err == nil
}
