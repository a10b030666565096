package storage

import (
	"fmt"
	"os"
	"sync"
)

const profileDirPattern = "a11yscan-profile-*"

// Dir manages a browser profile directory. It creates a temporary one when
// no directory is given, and only removes what it created.
type Dir struct {
	Dir string

	mu           sync.Mutex
	remove       bool
	removeCalled bool
}

// Make creates a temporary directory under tmpDir when dir is empty or nil.
// Otherwise dir (a string) is used as is and is never removed by Cleanup.
func (d *Dir) Make(tmpDir string, dir any) error {
	if dir != nil {
		if s, ok := dir.(string); ok && s != "" {
			d.Dir = s
			return nil
		}
	}

	var err error
	if d.Dir, err = os.MkdirTemp(tmpDir, profileDirPattern); err != nil { //nolint:forbidigo
		return fmt.Errorf("mkdirTemp: %w", err)
	}
	d.remove = true

	return nil
}

// Cleanup removes the directory if Make created it. Calling it more than
// once is a no-op.
func (d *Dir) Cleanup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.remove || d.removeCalled {
		return nil
	}
	d.removeCalled = true

	return os.RemoveAll(d.Dir) //nolint:forbidigo
}
