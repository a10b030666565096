package state

import (
	"bytes"
	"io"
	"sync"

	"github.com/mattn/go-colorable"
)

// ConsoleWriter syncs writes with a mutex and, if the output is a TTY,
// clears till the end of line before newlines.
type ConsoleWriter struct {
	io.Writer
	IsTTY bool
	Mutex *sync.Mutex
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	origLen := len(p)
	if w.IsTTY {
		p = bytes.ReplaceAll(p, []byte{'\n'}, []byte{'\x1b', '[', '0', 'K', '\n'})
	}

	w.Mutex.Lock()
	n, err = w.Writer.Write(p)
	w.Mutex.Unlock()

	if err != nil && n < origLen {
		return n, err
	}
	return origLen, err
}

// DisableColors strips color escape sequences from everything written to w.
func (w *ConsoleWriter) DisableColors() {
	w.Writer = colorable.NewNonColorable(w.Writer)
	w.IsTTY = false
}
