package dictation

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
)

// ListenKeys puts stdin in raw mode and streams single keypresses. The
// returned restore func must be called before the process writes its final
// output, or the terminal stays raw.
func ListenKeys() (<-chan rune, func(), error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, err
	}

	keys := make(chan rune)
	done := make(chan struct{})
	go forwardKeys(os.Stdin, keys, done)

	var once sync.Once
	restore := func() {
		once.Do(func() {
			_ = term.Restore(fd, oldState)
			close(done)
		})
	}
	return keys, restore, nil
}

// forwardKeys streams single bytes as keypresses until the reader fails or
// done closes. The done case lets the goroutine exit when the session ends
// with a key still unconsumed.
func forwardKeys(r io.Reader, keys chan<- rune, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			slog.Debug("Key listener stopped", "error", err)
			return
		}
		if n == 0 {
			continue
		}

		key := rune(buf[0])
		// Ctrl-C still quits in raw mode.
		if buf[0] == 0x03 {
			key = 'q'
		}

		select {
		case keys <- key:
		case <-done:
			return
		}
		if buf[0] == 0x03 {
			return
		}
	}
}

// TerminalWriter rewrites \n as \r\n so output stays column-aligned while
// the terminal is in raw mode.
type TerminalWriter struct {
	W io.Writer
}

func (t *TerminalWriter) Write(p []byte) (int, error) {
	if _, err := t.W.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
