package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned when using a session after Close.
var ErrClosed = errors.New("session: closed")

// ErrTooManySessions is returned by Create when the manager is at its
// configured session limit.
var ErrTooManySessions = errors.New("session: too many sessions")

// Config configures a Manager.
type Config struct {
	// MaxSessions limits concurrently live sessions. 0 means unlimited.
	MaxSessions int

	// MaxPassesPerFlush is the per-Flush pass budget for new sessions.
	// 0 uses DefaultMaxPassesPerFlush.
	MaxPassesPerFlush int

	// Logger is the structured logger. nil uses slog.Default().
	Logger *slog.Logger
}

// Stats is a snapshot of manager counters.
type Stats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
	Peak         int
}

// Manager tracks live sessions, creating them with unique IDs and closing
// them all on shutdown.
type Manager struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	totalCreated uint64
	totalClosed  uint64
	peak         int
}

// NewManager creates a session manager.
func NewManager(config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:   config,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create makes a new session and runs build to register its nodes before
// the session is exposed. A build failure closes the session and returns
// the error.
func (m *Manager) Create(build func(*Session) error) (*Session, error) {
	m.mu.Lock()
	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	m.mu.Unlock()

	s := New(generateSessionID(), m.logger)
	if m.config.MaxPassesPerFlush > 0 {
		s.SetMaxPassesPerFlush(m.config.MaxPassesPerFlush)
	}

	if build != nil {
		if err := build(s); err != nil {
			s.Close()
			return nil, fmt.Errorf("session: build graph: %w", err)
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.totalCreated++
	if len(m.sessions) > m.peak {
		m.peak = len(m.sessions)
	}
	active := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID, "active", active)
	return s, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down one session and removes it from the manager.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.totalClosed++
	}
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Info("session closed", "session_id", id)
	}
}

// CloseAll tears down every live session. Called at server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.totalClosed += uint64(len(sessions))
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stats returns a snapshot of manager counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Active:       len(m.sessions),
		TotalCreated: m.totalCreated,
		TotalClosed:  m.totalClosed,
		Peak:         m.peak,
	}
}

// generateSessionID generates a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
