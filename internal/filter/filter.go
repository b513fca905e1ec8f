// Package filter implements the heuristic inbound-message filter: a
// deterministic rule cascade that decides whether a message deserves an
// automated reply.
package filter

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ebdaasoft/whatsdesk/internal/replies"
)

// Decision is the outcome of one cascade evaluation.
type Decision struct {
	Accept bool
	// Rule names the cascade step that decided, for logging and stats.
	Rule string
}

// ContactChecker probes the transport's contact store. Lookup failures are
// treated as "not saved" so the cascade keeps running.
type ContactChecker interface {
	IsSavedContact(ctx context.Context, userID string) (bool, error)
}

// Business keywords: presence of any marks a message as business intent.
var businessKeywords = []string{
	"نظام", "برنامج", "سعر", "خدمة", "خدمات", "تصميم", "موقع", "تطبيق",
	"محاسب", "صرافة", "فاتورة", "اشتراك", "عرض",
	"system", "price", "website", "app", "design", "service",
}

// Personal-chat keywords: presence of any marks a message as a personal
// conversation the bot should stay out of.
var personalKeywords = []string{
	"تحدث مع موظف", "مساعدة", "مطلوب دعم", "استشارة", "مدير", "مسؤول",
	"كيف حالك", "وينك", "اتصل بي",
}

// Filter evaluates the cascade against the live FilterConfig. The known
// senders set is process-lifetime and feeds reporting only; it never gates
// decisions.
type Filter struct {
	logger   *slog.Logger
	config   func() replies.FilterConfig
	contacts ContactChecker

	mu           sync.Mutex
	knownSenders map[string]struct{}
	accepted     int
	rejected     int
}

// New creates a Filter reading its configuration through the given provider
// on every evaluation.
func New(log *slog.Logger, config func() replies.FilterConfig, contacts ContactChecker) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{
		logger:       log.With(slog.String("component", "filter")),
		config:       config,
		contacts:     contacts,
		knownSenders: map[string]struct{}{},
	}
}

// Evaluate runs the cascade for one inbound message. When the filter is
// disabled every message is accepted.
func (f *Filter) Evaluate(ctx context.Context, senderID, text string) Decision {
	cfg := f.config()
	if !cfg.Enabled {
		return f.record(senderID, Decision{Accept: true, Rule: "disabled"})
	}

	if !cfg.AllowSavedContacts && f.contacts != nil {
		saved, err := f.contacts.IsSavedContact(ctx, senderID)
		if err != nil {
			// Fail open toward continuing the cascade, not blind acceptance.
			f.logger.Warn("contact lookup failed", slog.String("sender", senderID), slog.Any("error", err))
			saved = false
		}
		if saved {
			return f.record(senderID, Decision{Accept: false, Rule: "saved_contact"})
		}
	}

	if utf8.RuneCountInString(text) < cfg.MinMessageLength {
		return f.record(senderID, Decision{Accept: false, Rule: "min_length"})
	}
	for _, token := range cfg.ExcludedTokens {
		if token != "" && strings.Contains(text, token) {
			return f.record(senderID, Decision{Accept: false, Rule: "excluded_token"})
		}
	}

	lowered := strings.ToLower(text)
	isBusiness := containsAny(lowered, businessKeywords)
	isPersonal := containsAny(lowered, personalKeywords)

	if isBusiness && !isPersonal {
		return f.record(senderID, Decision{Accept: true, Rule: "business"})
	}
	if cfg.AllowUnknownSenders && !isPersonal {
		return f.record(senderID, Decision{Accept: true, Rule: "unknown_allowed"})
	}
	return f.record(senderID, Decision{Accept: false, Rule: "default_reject"})
}

// Stats is a point-in-time reporting snapshot.
type Stats struct {
	KnownSenders int `json:"known_senders"`
	Accepted     int `json:"accepted"`
	Rejected     int `json:"rejected"`
}

// Snapshot returns current reporting counters.
func (f *Filter) Snapshot() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		KnownSenders: len(f.knownSenders),
		Accepted:     f.accepted,
		Rejected:     f.rejected,
	}
}

func (f *Filter) record(senderID string, d Decision) Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.Accept {
		f.accepted++
		if senderID != "" {
			f.knownSenders[senderID] = struct{}{}
		}
	} else {
		f.rejected++
	}
	return d
}

func containsAny(lowered string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
