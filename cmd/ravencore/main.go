// Command ravencore is the thin process entry point for the terminal
// core: it loads configuration, launches one shell session over a PTY,
// and hands the session's grid to a renderer loop. There is no
// window/GL/font code here — per the core's scope, those are external
// collaborators a real UI wires in separately; this binary's own
// "renderer" just drains dirty rows to stdout, standing in for
// whatever glyph pipeline a real frontend would attach.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corvidterm/termcore/config"
	"github.com/corvidterm/termcore/renderadapter"
	"github.com/corvidterm/termcore/termsession"
)

func main() {
	os.Exit(run())
}

func run() int {
	cols := flag.Uint("cols", 80, "initial terminal width")
	rows := flag.Uint("rows", 24, "initial terminal height")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("ravencore: loading config: %v", err)
		cfg = config.DefaultConfig()
	}

	shellPath := config.FindShell(cfg)
	args := config.ShellArgs(shellPath, cfg)
	env, homeDir, err := config.BuildEnv(cfg, shellPath)
	if err != nil {
		log.Printf("ravencore: setup failed: %v", err)
		return 1
	}

	logger := log.New(os.Stderr, "ravencore: ", log.LstdFlags)
	session, err := termsession.New(shellPath, args, env, homeDir, uint16(*cols), uint16(*rows), logger)
	if err != nil {
		log.Printf("ravencore: setup failed: %v", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	exitCode := 0
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-sigCh:
			break loop
		case <-ticker.C:
			repaint(session)
			if session.HasExited() {
				break loop
			}
		}
	}

	repaint(session)
	if err := session.Close(); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	return exitCode
}

// repaint drains the session's dirty interval and writes the affected
// rows to stdout. A real frontend would instead hand these rows to its
// glyph pipeline; this is the core's only built-in consumer of the
// renderadapter boundary.
func repaint(session *termsession.Session) {
	lo, hi, ok := renderadapter.DirtyInterval(session.Tracker())
	if !ok {
		return
	}
	g := session.Grid()
	for y := lo; y <= hi; y++ {
		fmt.Printf("\x1b[%d;1H\x1b[K%s", y+1, renderadapter.RowAsUTF8(g, y))
	}
}
