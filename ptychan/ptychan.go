// Package ptychan owns the PTY master file descriptor: starting the
// child shell, reading its output into a vtparser.Terminal, and writing
// keyboard input back with the bounded write loop and CR/LF expansion
// policy the terminal's CRAndLF mode calls for.
package ptychan

import (
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/corvidterm/termcore/vtparser"
)

const writeChunk = 256

// Channel is a running child process attached to a PTY, feeding its
// output into a terminal state machine.
type Channel struct {
	master *os.File
	cmd    *exec.Cmd
	term   *vtparser.Terminal

	writeMu sync.Mutex

	exitedMu sync.Mutex
	exited   bool

	done chan struct{}
}

// Setup starts shell (with args) under a new PTY of size cols×rows,
// running in dir with the given environment, and spawns the goroutines
// that read its output into term and reap the child on exit.
func Setup(shell string, args []string, env []string, dir string, cols, rows uint16, term *vtparser.Terminal) (*Channel, error) {
	cmd := exec.Command(shell, args...)
	cmd.Env = env
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		master: master,
		cmd:    cmd,
		term:   term,
		done:   make(chan struct{}),
	}

	// Replies are produced inside term.Feed, which holds the terminal's
	// lock, so they go straight to the master rather than through Write
	// (whose mode checks take that lock); CR/LF expansion does not apply
	// to them.
	term.SetResponseWriter(func(b []byte) {
		ch.master.Write(b)
	})

	go ch.reap()
	go ch.readLoop()

	return ch, nil
}

func (c *Channel) reap() {
	c.cmd.Wait()
	c.exitedMu.Lock()
	c.exited = true
	c.exitedMu.Unlock()
}

// HasExited reports whether the child process has exited.
func (c *Channel) HasExited() bool {
	c.exitedMu.Lock()
	defer c.exitedMu.Unlock()
	return c.exited
}

// readLoop blocks reading the PTY master and feeds every chunk straight
// into term.Feed. vtparser's own incremental UTF-8 state (carried in
// Terminal.utf8Buf across Feed calls) already preserves a multi-byte
// sequence split across two reads, so no separate carry buffer is
// needed here.
func (c *Channel) readLoop() {
	defer close(c.done)
	buf := make([]byte, 4096)
	for {
		n, err := c.master.Read(buf)
		if n > 0 {
			c.term.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Write sends data to the child process in bounded writeChunk-byte
// writes, expanding a standalone \r to \r\n when the terminal's
// CRAndLF mode is on, and echoing the raw input locally when mayEcho
// is true and the terminal's ECHO mode is set.
func (c *Channel) Write(data []byte, mayEcho bool) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if mayEcho && c.term.ModeEnabled(vtparser.ModeEcho) {
		c.term.Feed(data)
	}

	out := data
	if c.term.ModeEnabled(vtparser.ModeCRAndLF) {
		out = expandCRAndLF(data)
	}

	written := 0
	for written < len(out) {
		end := written + writeChunk
		if end > len(out) {
			end = len(out)
		}
		n, err := c.master.Write(out[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return len(data), nil
}

// expandCRAndLF inserts a \n after every standalone \r (one not
// already followed by \n), since not every client sends a full \r\n
// pair for a newline.
func expandCRAndLF(data []byte) []byte {
	out := make([]byte, 0, len(data)+4)
	for i := 0; i < len(data); i++ {
		b := data[i]
		out = append(out, b)
		if b == '\r' && (i+1 >= len(data) || data[i+1] != '\n') {
			out = append(out, '\n')
		}
	}
	return out
}

// Resize updates the PTY window size.
func (c *Channel) Resize(cols, rows uint16) error {
	return pty.Setsize(c.master, &pty.Winsize{Cols: cols, Rows: rows})
}

// Shutdown closes the PTY master, which unblocks the pending Read in
// readLoop with an error, and waits for the reader goroutine to exit.
func (c *Channel) Shutdown() error {
	err := c.master.Close()
	<-c.done
	return err
}
