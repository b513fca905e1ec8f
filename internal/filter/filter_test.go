package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/ebdaasoft/whatsdesk/internal/replies"
)

type fakeContacts struct {
	saved map[string]bool
	err   error
}

func (f *fakeContacts) IsSavedContact(ctx context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.saved[userID], nil
}

func fixedConfig(cfg replies.FilterConfig) func() replies.FilterConfig {
	return func() replies.FilterConfig { return cfg }
}

func TestDisabledFilterAcceptsEverything(t *testing.T) {
	t.Parallel()

	f := New(nil, fixedConfig(replies.FilterConfig{Enabled: false}), nil)
	d := f.Evaluate(context.Background(), "anyone", "x")
	if !d.Accept || d.Rule != "disabled" {
		t.Fatalf("disabled filter must accept: %+v", d)
	}
}

func TestMinLengthRunsBeforeKeywords(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  true,
		MinMessageLength:    5,
	}
	f := New(nil, fixedConfig(cfg), nil)
	// "سعر" is a business keyword but shorter than the minimum; length wins.
	d := f.Evaluate(context.Background(), "u", "سعر")
	if d.Accept || d.Rule != "min_length" {
		t.Fatalf("length check must precede keywords: %+v", d)
	}
}

func TestExcludedTokenRejects(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  true,
		ExcludedTokens:      []string{"إعلان"},
	}
	f := New(nil, fixedConfig(cfg), nil)
	d := f.Evaluate(context.Background(), "u", "هذا إعلان عن نظام جديد")
	if d.Accept || d.Rule != "excluded_token" {
		t.Fatalf("excluded token must reject: %+v", d)
	}
}

func TestBusinessKeywordAccepts(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:            true,
		AllowSavedContacts: true,
		MinMessageLength:   2,
	}
	f := New(nil, fixedConfig(cfg), nil)
	d := f.Evaluate(context.Background(), "u", "أريد نظام محاسبي")
	if !d.Accept || d.Rule != "business" {
		t.Fatalf("business message must be accepted: %+v", d)
	}
}

func TestPersonalKeywordOverridesBusiness(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  true,
		MinMessageLength:    2,
	}
	f := New(nil, fixedConfig(cfg), nil)
	// Contains both a business keyword and a personal-support phrase; the
	// personal intent wins and the message is left for a human.
	d := f.Evaluate(context.Background(), "u", "سعر النظام؟ تحدث مع موظف")
	if d.Accept {
		t.Fatalf("personal message must be rejected: %+v", d)
	}
}

func TestUnknownSendersGatedByConfig(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:            true,
		AllowSavedContacts: true,
		MinMessageLength:   2,
	}
	f := New(nil, fixedConfig(cfg), nil)
	d := f.Evaluate(context.Background(), "u", "مرحبا كيف الحال اليوم")
	if d.Accept {
		t.Fatalf("neutral message must be rejected when unknown senders are off: %+v", d)
	}

	cfg.AllowUnknownSenders = true
	f2 := New(nil, fixedConfig(cfg), nil)
	d2 := f2.Evaluate(context.Background(), "u", "مرحبا كيف الحال اليوم")
	if !d2.Accept || d2.Rule != "unknown_allowed" {
		t.Fatalf("neutral message must pass when unknown senders are on: %+v", d2)
	}
}

func TestSavedContactRejectedWhenDisallowed(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  false,
		MinMessageLength:    2,
	}
	contacts := &fakeContacts{saved: map[string]bool{"friend": true}}
	f := New(nil, fixedConfig(cfg), contacts)

	d := f.Evaluate(context.Background(), "friend", "أريد نظام محاسبي")
	if d.Accept || d.Rule != "saved_contact" {
		t.Fatalf("saved contact must be rejected: %+v", d)
	}
	d2 := f.Evaluate(context.Background(), "stranger", "أريد نظام محاسبي")
	if !d2.Accept {
		t.Fatalf("unsaved sender must continue the cascade: %+v", d2)
	}
}

func TestContactLookupFailureContinuesCascade(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  false,
		MinMessageLength:    2,
	}
	contacts := &fakeContacts{err: errors.New("store offline")}
	f := New(nil, fixedConfig(cfg), contacts)
	d := f.Evaluate(context.Background(), "u", "أريد نظام محاسبي")
	if !d.Accept {
		t.Fatalf("lookup failure must not block the cascade: %+v", d)
	}
}

func TestSnapshotCounters(t *testing.T) {
	t.Parallel()

	cfg := replies.FilterConfig{
		Enabled:             true,
		AllowUnknownSenders: true,
		AllowSavedContacts:  true,
		MinMessageLength:    2,
	}
	f := New(nil, fixedConfig(cfg), nil)
	f.Evaluate(context.Background(), "a", "أريد نظام")
	f.Evaluate(context.Background(), "a", "أريد نظام")
	f.Evaluate(context.Background(), "b", "x")

	stats := f.Snapshot()
	if stats.Accepted != 2 || stats.Rejected != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if stats.KnownSenders != 1 {
		t.Fatalf("known senders must deduplicate: %+v", stats)
	}
}
