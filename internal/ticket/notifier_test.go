package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (f *fakeSender) SendText(ctx context.Context, target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[target] {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, target)
	return nil
}

func (f *fakeSender) SendImage(ctx context.Context, target, source, filename, caption string) error {
	return nil
}
func (f *fakeSender) IsLoggedIn() bool { return true }
func (f *fakeSender) IsSavedContact(ctx context.Context, userID string) (bool, error) {
	return false, nil
}
func (f *fakeSender) Disconnect() {}

func waitResult(t *testing.T, ch <-chan DispatchResult) DispatchResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("dispatch result timed out")
		return DispatchResult{}
	}
}

func TestNotifyCreatedReachesBroadcastAndAdmins(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	n := NewNotifier(nil, sender, func() (string, []string) {
		return "group@broadcast", []string{"admin1", "admin2"}
	})
	result := waitResult(t, n.NotifyCreated(Ticket{ID: "abcdef123456", UserName: "Sara", Category: CategoryTechnical, Problem: "x"}))
	if !result.Ok() {
		t.Fatalf("expected full delivery: %+v", result)
	}
	if len(result.Delivered) != 3 {
		t.Fatalf("expected 3 deliveries, got %+v", result.Delivered)
	}
}

func TestDispatchRecordsPartialFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failFor: map[string]bool{"admin1": true}}
	n := NewNotifier(nil, sender, func() (string, []string) {
		return "", []string{"admin1", "admin2"}
	})
	result := waitResult(t, n.NotifyUpdated(Ticket{ID: "abcdef123456", UserName: "Omar"}, "متابعة"))
	if result.Ok() {
		t.Fatalf("expected a failure to be recorded")
	}
	if len(result.Failed) != 1 || result.Failed[0] != "admin1" {
		t.Fatalf("unexpected failed set: %+v", result.Failed)
	}
	if len(result.Delivered) != 1 || result.Delivered[0] != "admin2" {
		t.Fatalf("unexpected delivered set: %+v", result.Delivered)
	}
}

func TestDispatchWithNoTargetsCompletesEmpty(t *testing.T) {
	t.Parallel()

	n := NewNotifier(nil, nil, func() (string, []string) { return "", nil })
	result := waitResult(t, n.NotifyCreated(Ticket{ID: "abcdef123456"}))
	if !result.Ok() || len(result.Delivered) != 0 {
		t.Fatalf("no targets must complete as an empty success: %+v", result)
	}
}
