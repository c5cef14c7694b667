package player

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal renders frames to the controlling terminal in raw mode and polls
// key presses without blocking. It implements Sink.
type Terminal struct {
	in       *os.File
	out      *os.File
	oldState *term.State
	keys     chan byte
}

// NewTerminal switches stdin into raw mode and starts the key reader. The
// caller must Close to restore the terminal.
func NewTerminal() (*Terminal, error) {
	in, out := os.Stdin, os.Stdout
	if !term.IsTerminal(int(in.Fd())) {
		return nil, errors.New("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	t := &Terminal{
		in:       in,
		out:      out,
		oldState: oldState,
		keys:     make(chan byte, 8),
	}
	go t.readKeys()
	return t, nil
}

func (t *Terminal) readKeys() {
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			select {
			case t.keys <- buf[0]:
			default:
			}
		}
	}
}

// Dimensions re-reads the terminal size on every call.
func (t *Terminal) Dimensions() (rows, cols int) {
	cols, rows, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		return 24, 80
	}
	return rows, cols
}

// Render clears the screen and draws the frame from the top-left corner.
func (t *Terminal) Render(rows []string) error {
	var b strings.Builder
	b.WriteString("\x1b[H\x1b[2J")
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(row)
	}
	_, err := t.out.WriteString(b.String())
	return err
}

// PollKey reports whether a key was pressed since the last poll.
func (t *Terminal) PollKey() bool {
	select {
	case <-t.keys:
		return true
	default:
		return false
	}
}

// HideCursor hides the cursor until Close.
func (t *Terminal) HideCursor() {
	fmt.Fprint(t.out, "\x1b[?25l")
}

// Close restores cursor visibility and cooked mode.
func (t *Terminal) Close() error {
	fmt.Fprint(t.out, "\x1b[?25h")
	if t.oldState != nil {
		return term.Restore(int(t.in.Fd()), t.oldState)
	}
	return nil
}
