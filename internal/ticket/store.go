package ticket

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebdaasoft/whatsdesk/internal/store"
)

// Store is the append-only ticket collection, persisted as a single JSON
// array rewritten wholesale on every mutation.
type Store struct {
	logger *slog.Logger
	doc    *store.Document[[]Ticket]

	mu      sync.Mutex
	tickets []Ticket
}

// NewStore creates the store backed by the given file path and loads any
// existing document.
func NewStore(log *slog.Logger, path string) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		logger: log.With(slog.String("component", "tickets")),
		doc:    store.NewDocument[[]Ticket](path),
	}
	if s.doc.Exists() {
		if loaded, err := s.doc.Load(); err == nil {
			s.tickets = loaded
		} else {
			s.logger.Error("load tickets failed", slog.Any("error", err))
		}
	}
	return s
}

// Create materializes a new ticket with status "new" and an empty thread.
func (s *Store) Create(userID, userName string, category Category, problem string) (Ticket, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(problem) == "" {
		return Ticket{}, fmt.Errorf("%w: user id and problem are required", ErrValidation)
	}
	if _, ok := CategoryLabels[category]; !ok {
		return Ticket{}, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	t := Ticket{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Category:  category,
		Status:    StatusNew,
		Problem:   problem,
		Messages:  []Message{},
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tickets = append(s.tickets, t)
	s.persistLocked()
	s.mu.Unlock()
	return t, nil
}

// Get returns the ticket with the exact id.
func (s *Store) Get(id string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns all tickets, optionally filtered by status.
func (s *Store) List(status Status) []Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if status != "" && t.Status != status {
			continue
		}
		items = append(items, t)
	}
	return items
}

// ListByUser returns the caller's tickets partitioned into active
// (status != resolved) and resolved.
func (s *Store) ListByUser(userID string) (active, resolved []Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.UserID != userID {
			continue
		}
		if t.Status == StatusResolved {
			resolved = append(resolved, t)
		} else {
			active = append(active, t)
		}
	}
	return active, resolved
}

// FindByPrefix returns the first ticket whose id contains the given prefix
// and whose owner matches userID. Short prefixes can match several tickets;
// first match wins.
func (s *Store) FindByPrefix(userID, prefix string) (Ticket, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Ticket{}, fmt.Errorf("%w: empty prefix", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.UserID == userID && strings.Contains(t.ID, prefix) {
			return t, nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: prefix %s", ErrNotFound, prefix)
}

// UpdateStatus sets the lifecycle state of a ticket. Admin-only path.
func (s *Store) UpdateStatus(id string, status Status) (Ticket, error) {
	if !ValidStatus(status) {
		return Ticket{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets[i].Status = status
			s.persistLocked()
			return s.tickets[i], nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// AppendMessage appends one thread entry to the ticket with the exact id.
func (s *Store) AppendMessage(id, text string, fromUser bool) (Ticket, error) {
	if strings.TrimSpace(text) == "" {
		return Ticket{}, fmt.Errorf("%w: message text is required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			s.tickets[i].Messages = append(s.tickets[i].Messages, Message{
				Text:      text,
				FromUser:  fromUser,
				Timestamp: time.Now().UTC(),
			})
			s.persistLocked()
			return s.tickets[i], nil
		}
	}
	return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Count returns the total number of tickets.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *Store) persistLocked() {
	if err := s.doc.Save(s.tickets); err != nil {
		// Memory stays authoritative; the write is retried on the next
		// mutation.
		s.logger.Error("save tickets failed", slog.Any("error", err))
	}
}
