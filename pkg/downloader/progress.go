package downloader

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/go-getter"
	"golang.org/x/term"
)

var _ getter.ProgressTracker = &ProgressBar{}

// ProgressBar draws a single line progress bar for a transfer.
// It only draws when out is a terminal whose width can be
// read, otherwise streams are passed through untouched.
type ProgressBar struct {
	out io.Writer
	mu  sync.Mutex
}

func NewProgressBar(out io.Writer) *ProgressBar {
	return &ProgressBar{out: out}
}

type fdWriter interface {
	io.Writer
	Fd() uintptr
}

func (p *ProgressBar) width() (int, bool) {
	f, ok := p.out.(fdWriter)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 20 {
		return 0, false
	}
	return w, true
}

func (p *ProgressBar) TrackProgress(_ string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	width, ok := p.width()
	if !ok {
		return stream
	}
	return &progressReader{
		ReadCloser: stream,
		bar:        p,
		width:      width - 10,
		current:    currentSize,
		total:      totalSize,
	}
}

func (p *ProgressBar) draw(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, s)
}

type progressReader struct {
	io.ReadCloser
	bar     *ProgressBar
	width   int
	current int64
	total   int64
	percent int
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.ReadCloser.Read(b)
	r.current += int64(n)
	if r.total > 0 {
		pct := int(r.current * 100 / r.total)
		if pct != r.percent {
			r.percent = pct
			r.bar.draw(render(pct, r.width) + "\r")
		}
	}
	return n, err
}

func (r *progressReader) Close() error {
	if r.total > 0 {
		r.bar.draw(render(100, r.width) + "\n")
	}
	return r.ReadCloser.Close()
}

// render formats a bar of the given width
// for a percentage between 0 and 100.
func render(percent, width int) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	filled := width * percent / 100
	return fmt.Sprintf("[%3d %%] [%s%s]", percent, strings.Repeat("#", filled), strings.Repeat(" ", width-filled))
}
