package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ebdaasoft/whatsdesk/internal/transport"
)

// Targets resolves the escalation recipients at dispatch time so admin edits
// take effect without rewiring.
type Targets func() (broadcast string, admins []string)

// DispatchResult reports the outcome of one escalation attempt. Callers may
// discard it; failures are observable here and in the logs, never retried.
type DispatchResult struct {
	Delivered []string  `json:"delivered"`
	Failed    []string  `json:"failed"`
	At        time.Time `json:"at"`
}

// Ok reports whether every send succeeded.
func (r DispatchResult) Ok() bool {
	return len(r.Failed) == 0
}

// Notifier escalates new and updated tickets to the configured broadcast
// target and admin list. Sends are best-effort and at-most-once.
type Notifier struct {
	logger  *slog.Logger
	client  transport.Client
	targets Targets
}

// NewNotifier creates a Notifier sending through the given client.
func NewNotifier(log *slog.Logger, client transport.Client, targets Targets) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{
		logger:  log.With(slog.String("component", "notifier")),
		client:  client,
		targets: targets,
	}
}

// NotifyCreated announces a freshly created ticket in the background. The
// returned channel yields the single DispatchResult and is then closed.
func (n *Notifier) NotifyCreated(t Ticket) <-chan DispatchResult {
	text := fmt.Sprintf("🎫 تذكرة جديدة #%s\nالعميل: %s\nالنوع: %s\nالمشكلة: %s",
		t.ShortID(), t.UserName, CategoryLabels[t.Category], t.Problem)
	return n.dispatch(text)
}

// NotifyUpdated announces a user follow-up on an existing ticket.
func (n *Notifier) NotifyUpdated(t Ticket, message string) <-chan DispatchResult {
	text := fmt.Sprintf("💬 رد جديد على التذكرة #%s من %s:\n%s",
		t.ShortID(), t.UserName, message)
	return n.dispatch(text)
}

func (n *Notifier) dispatch(text string) <-chan DispatchResult {
	out := make(chan DispatchResult, 1)
	go func() {
		defer close(out)
		result := DispatchResult{At: time.Now().UTC()}
		broadcast, admins := n.targets()
		recipients := make([]string, 0, len(admins)+1)
		if broadcast != "" {
			recipients = append(recipients, broadcast)
		}
		recipients = append(recipients, admins...)
		if len(recipients) == 0 || n.client == nil {
			out <- result
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, target := range recipients {
			if err := n.client.SendText(ctx, target, text); err != nil {
				n.logger.Warn("ticket notification failed",
					slog.String("target", target), slog.Any("error", err))
				result.Failed = append(result.Failed, target)
				continue
			}
			result.Delivered = append(result.Delivered, target)
		}
		out <- result
	}()
	return out
}
