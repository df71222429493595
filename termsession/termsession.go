// Package termsession is the supervisor that owns a ptychan/vtparser
// pair per terminal: it starts the child shell, serializes writes to
// it, and tracks exit/resize, generalizing the teacher's single-process
// tab model to the spec's session vocabulary.
package termsession

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/corvidterm/termcore/cellgrid"
	"github.com/corvidterm/termcore/dirty"
	"github.com/corvidterm/termcore/ptychan"
	"github.com/corvidterm/termcore/vtparser"
)

// MaxSessions bounds how many concurrent sessions a Manager will hold,
// mirroring the teacher's fixed tab cap.
const MaxSessions = 10

// Session is one running shell: its terminal state machine, PTY
// channel, and dirty tracker, addressed by a stable UUID.
type Session struct {
	ID string

	term    *vtparser.Terminal
	channel *ptychan.Channel
	tracker *dirty.Tracker

	logger *log.Logger
}

// New starts shell under a PTY of cols×rows and wires its output into a
// fresh terminal and dirty tracker.
func New(shell string, args, env []string, dir string, cols, rows uint16, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}

	term := vtparser.New(int(cols), int(rows))
	tracker := dirty.New()
	term.SetDirtyHook(tracker.Widen)

	channel, err := ptychan.Setup(shell, args, env, dir, cols, rows, term)
	if err != nil {
		return nil, fmt.Errorf("termsession: starting %s: %w", shell, err)
	}

	s := &Session{
		ID:      uuid.NewString(),
		term:    term,
		channel: channel,
		tracker: tracker,
		logger:  logger,
	}
	logger.Printf("termsession: started %s (shell=%s)", s.ID, shell)
	return s, nil
}

// Grid returns the session's currently active cell grid.
func (s *Session) Grid() *cellgrid.Grid {
	return s.term.Grid()
}

// Terminal returns the session's escape-sequence state machine.
func (s *Session) Terminal() *vtparser.Terminal {
	return s.term
}

// Tracker returns the session's dirty-region tracker.
func (s *Session) Tracker() *dirty.Tracker {
	return s.tracker
}

// Write sends keyboard/paste input to the child process.
func (s *Session) Write(data []byte) error {
	_, err := s.channel.Write(data, true)
	if err != nil {
		return fmt.Errorf("termsession: write to %s: %w", s.ID, err)
	}
	return nil
}

// Resize resizes both the terminal grid and the PTY window.
func (s *Session) Resize(cols, rows uint16) error {
	s.term.Resize(int(cols), int(rows))
	if err := s.channel.Resize(cols, rows); err != nil {
		return fmt.Errorf("termsession: resize %s: %w", s.ID, err)
	}
	return nil
}

// HasExited reports whether the child process has exited.
func (s *Session) HasExited() bool {
	return s.channel.HasExited()
}

// Close shuts down the PTY channel.
func (s *Session) Close() error {
	return s.channel.Shutdown()
}

// Manager holds a bounded set of concurrent sessions, keyed by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	logger   *log.Logger
}

// NewManager returns an empty session manager.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Start creates and registers a new session, rejecting the request once
// MaxSessions is reached.
func (m *Manager) Start(shell string, args, env []string, dir string, cols, rows uint16) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= MaxSessions {
		return nil, fmt.Errorf("termsession: at most %d concurrent sessions allowed", MaxSessions)
	}

	s, err := New(shell, args, env, dir, cols, rows, m.logger)
	if err != nil {
		return nil, err
	}

	m.sessions[s.ID] = s
	m.order = append(m.order, s.ID)
	return s, nil
}

// Get returns the session with the given ID, or nil if absent.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove closes and forgets the session with the given ID.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return s.Close()
}

// CleanupExited removes every session whose child process has exited.
func (m *Manager) CleanupExited() {
	m.mu.Lock()
	var exited []string
	for id, s := range m.sessions {
		if s.HasExited() {
			exited = append(exited, id)
		}
	}
	m.mu.Unlock()
	for _, id := range exited {
		if err := m.Remove(id); err != nil {
			m.logger.Printf("termsession: closing exited session %s: %v", id, err)
		}
	}
}

// ResizeAll resizes every active session.
func (m *Manager) ResizeAll(cols, rows uint16) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Resize(cols, rows); err != nil {
			m.logger.Printf("termsession: resize %s: %v", s.ID, err)
		}
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns session IDs in creation order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}
