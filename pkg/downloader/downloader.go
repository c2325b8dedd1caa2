package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
	"golang.org/x/sync/errgroup"
)

// NewDownloader creates a Downloader. The progress tracker
// is optional.
func NewDownloader(progress getter.ProgressTracker) *Downloader {
	return &Downloader{progress: progress}
}

// Download fetches src into the file at dst, replacing
// anything that is already there.
func (d *Downloader) Download(ctx context.Context, src, dst string) error {
	return d.download(ctx, src, dst, false)
}

func (d *Downloader) download(ctx context.Context, src, dst string, progress bool) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src)
	log.V(1).Info("downloading file", "dst", dst)

	uri, err := url.Parse(src)
	if err != nil {
		log.Error(err, "failed to parse url")
		return err
	}
	// disable archive handling, we want the
	// compressed file as-is
	q := uri.Query()
	q.Set("archive", "false")
	uri.RawQuery = q.Encode()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		log.Error(err, "failed to create download directory")
		return err
	}
	// go-getter will try to resume into an existing
	// file, so make sure there isn't one
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	client := &getter.Client{
		Ctx:             ctx,
		Src:             uri.String(),
		Dst:             dst,
		Mode:            getter.ClientModeFile,
		DisableSymlinks: true,
	}
	if progress && d.progress != nil {
		client.ProgressListener = d.progress
	}
	if err := client.Get(); err != nil {
		log.V(1).Info("failed to download file", "error", err.Error())
		// don't leave a partial file behind
		_ = os.Remove(dst)
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, src, err)
	}
	if err := os.Chmod(dst, 0644); err != nil {
		log.Error(err, "failed to update file permissions", "file", dst)
		return err
	}
	return nil
}

// DownloadAll fetches every request concurrently, at most
// MaxConcurrent at a time, and waits for all of them to finish.
// The first failure of a required request cancels the remaining
// transfers and is returned. Failures of optional requests are
// reported in the matching Result.
func (d *Downloader) DownloadAll(ctx context.Context, requests []Request) ([]Result, error) {
	results := make([]Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrent)
	for i := range requests {
		i := i
		results[i].Request = requests[i]
		g.Go(func() error {
			err := d.download(gctx, requests[i].Src, requests[i].Dst, requests[i].Progress)
			if err == nil {
				return nil
			}
			if requests[i].Optional {
				results[i].Err = err
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
