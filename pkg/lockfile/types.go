package lockfile

import (
	"errors"
	"sync"
)

var ErrLocked = errors.New("lockfile exists, make sure you aren't running a second fpkg instance and if not, remove it")

// Guard is a held lock marker. It must be released on
// every exit path, usually with a deferred Release.
type Guard struct {
	path string
	once sync.Once
	err  error
}
