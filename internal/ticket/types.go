// Package ticket implements the append-only support-ticket store and the
// fire-and-forget escalation dispatcher.
package ticket

import (
	"errors"
	"time"
)

// ErrNotFound indicates an unknown ticket reference.
var ErrNotFound = errors.New("ticket: not found")

// ErrValidation indicates malformed ticket input.
var ErrValidation = errors.New("ticket: validation failed")

// Category classifies a reported problem.
type Category string

const (
	CategoryTechnical  Category = "technical"
	CategoryInquiry    Category = "inquiry"
	CategoryComplaint  Category = "complaint"
	CategorySuggestion Category = "suggestion"
)

// Status is the admin-driven lifecycle state.
type Status string

const (
	StatusNew      Status = "new"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// StatusLabels maps statuses to the localized labels shown to end users.
var StatusLabels = map[Status]string{
	StatusNew:      "جديدة",
	StatusPending:  "قيد المعالجة",
	StatusResolved: "تم الحل",
}

// CategoryLabels maps categories to the localized labels shown to end users.
var CategoryLabels = map[Category]string{
	CategoryTechnical:  "مشكلة تقنية",
	CategoryInquiry:    "استفسار",
	CategoryComplaint:  "شكوى",
	CategorySuggestion: "اقتراح",
}

// Message is one entry in a ticket's append-only thread.
type Message struct {
	Text      string    `json:"text"`
	FromUser  bool      `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a persisted user-reported issue. IDs are immutable after
// creation and tickets are never deleted.
type Ticket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Category  Category  `json:"category"`
	Status    Status    `json:"status"`
	Problem   string    `json:"problem"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortID returns the 8-character id prefix surfaced to end users.
func (t Ticket) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}

// ValidStatus reports whether raw names a known lifecycle state.
func ValidStatus(raw Status) bool {
	switch raw {
	case StatusNew, StatusPending, StatusResolved:
		return true
	default:
		return false
	}
}
