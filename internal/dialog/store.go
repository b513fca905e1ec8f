package dialog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebdaasoft/whatsdesk/internal/store"
)

// Store keeps one Session per end-user id, persisted as one JSON file per
// user under dir. Sessions are created on first contact and evicted by an
// age-based sweep.
type Store struct {
	logger  *slog.Logger
	dir     string
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a session store rooted at dir with the given inactivity
// timeout.
func NewStore(log *slog.Logger, dir string, timeout time.Duration) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		logger:   log.With(slog.String("component", "dialog")),
		dir:      dir,
		timeout:  timeout,
		sessions: map[string]*Session{},
	}
}

// GetOrCreate returns the live session for userID, loading it from disk or
// creating a fresh one positioned at mainMenuID.
func (s *Store) GetOrCreate(userID, mainMenuID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session
	}
	doc := store.NewDocument[Session](s.sessionPath(userID))
	if doc.Exists() {
		if loaded, err := doc.Load(); err == nil {
			session := loaded
			if len(session.MenuHistory) == 0 {
				session.MenuHistory = []string{mainMenuID}
				session.CurrentMenuID = mainMenuID
			}
			s.sessions[userID] = &session
			return &session
		} else {
			s.logger.Warn("load session failed", slog.String("user", userID), slog.Any("error", err))
		}
	}
	session := NewSession(userID, mainMenuID, time.Now().UTC())
	s.sessions[userID] = session
	return session
}

// Get returns the live session for userID if present.
func (s *Store) Get(userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return session, nil
}

// Save stamps activity time and persists the session. Persistence failures
// are logged; the in-memory session stays authoritative.
func (s *Store) Save(session *Session) {
	session.LastActivityAt = time.Now().UTC()
	doc := store.NewDocument[Session](s.sessionPath(session.UserID))
	if err := doc.Save(*session); err != nil {
		s.logger.Error("save session failed", slog.String("user", session.UserID), slog.Any("error", err))
	}
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the configured timeout and removes
// their persisted files. Returns the number of evicted sessions.
func (s *Store) Sweep() int {
	cutoff := time.Now().UTC().Add(-s.timeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for userID, session := range s.sessions {
		if session.LastActivityAt.Before(cutoff) {
			delete(s.sessions, userID)
			if err := os.Remove(s.sessionPath(userID)); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("remove session file failed", slog.String("user", userID), slog.Any("error", err))
			}
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("session sweep", slog.Int("evicted", evicted))
	}
	return evicted
}

func (s *Store) sessionPath(userID string) string {
	// Platform ids contain characters unfit for file names.
	safe := strings.NewReplacer("@", "_", ":", "_", "/", "_", "\\", "_", "+", "").Replace(userID)
	return filepath.Join(s.dir, "sessions", safe+".json")
}
