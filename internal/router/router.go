// Package router implements the conversational state machine: menu
// navigation with a back-navigable history stack, quick-reply overrides,
// system-detail dispatch, and the nested problem-report sub-flow.
package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ebdaasoft/whatsdesk/internal/dialog"
	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/ticket"
)

// MenuProblemFollowup is the ticket follow-up state. It is not a rendered
// menu: it accepts only the structured follow-up command and the global
// digits.
const MenuProblemFollowup = "problem_followup"

// ErrSystemText is the only failure text ever shown to a chat user.
const ErrSystemText = "عذراً، حدث خطأ في النظام. يرجى المحاولة مرة أخرى لاحقاً."

const backHint = "\n\n0️⃣ رجوع"

// Reply is the outbound result of one routed message. ImagePath, when set,
// requests a side-channel image send alongside the text.
type Reply struct {
	Text         string
	ImagePath    string
	ImageCaption string
}

// categoryMenus maps main-menu digits to category menu ids.
var categoryMenus = map[string]string{
	"1": replies.MenuAccounting,
	"2": replies.MenuExchange,
	"3": replies.MenuDesign,
}

// Router consumes dialog sessions, the replies configuration, and the ticket
// store to turn inbound text into outbound replies.
type Router struct {
	logger   *slog.Logger
	config   *replies.Service
	sessions *dialog.Store
	tickets  *ticket.Store
	notifier *ticket.Notifier
}

// New creates a Router. notifier may be nil; escalation is then skipped.
func New(log *slog.Logger, config *replies.Service, sessions *dialog.Store, tickets *ticket.Store, notifier *ticket.Notifier) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		logger:   log.With(slog.String("component", "router")),
		config:   config,
		sessions: sessions,
		tickets:  tickets,
		notifier: notifier,
	}
}

// SetNotifier installs the escalation dispatcher after pairing completes.
func (r *Router) SetNotifier(n *ticket.Notifier) {
	r.notifier = n
}

// Handle routes one inbound message for the given user and returns the reply
// to send. The session is loaded (or created), mutated, and persisted here.
func (r *Router) Handle(ctx context.Context, userID, displayName, body string) Reply {
	session := r.sessions.GetOrCreate(userID, replies.MenuMain)
	defer r.sessions.Save(session)

	doc := r.config.Replies()
	vars := replies.SubstitutionVars(doc, displayName)

	// An active problem report owns the conversation before any other rule.
	if session.ReportingProblem {
		return r.handleProblemStep(session, doc, body, displayName)
	}

	if reply, ok := r.matchQuickReply(doc, vars, session, body); ok {
		return reply
	}

	digit := SingleDigit(body)
	switch digit {
	case "0":
		return r.handleBack(session, doc, vars)
	case "6":
		return r.startProblemFlow(session)
	}

	switch session.CurrentMenuID {
	case replies.MenuMain:
		return r.handleMain(session, doc, vars, digit)
	case replies.MenuAccounting, replies.MenuExchange, replies.MenuDesign:
		return r.handleCategory(session, doc, vars, digit)
	case MenuProblemFollowup:
		return r.handleFollowupCommand(session, body)
	default:
		// Unknown persisted state; recover at the root.
		session.ResetToRoot(replies.MenuMain)
		return Reply{Text: r.renderMenu(doc, vars, replies.MenuMain)}
	}
}

func (r *Router) matchQuickReply(doc replies.Document, vars map[string]string, session *dialog.Session, body string) (Reply, bool) {
	lowered := strings.ToLower(body)
	for _, qr := range doc.QuickReplies {
		for _, trigger := range qr.Triggers {
			if trigger == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(trigger)) {
				// Quick replies are a global override: navigation restarts
				// at the root.
				session.ResetToRoot(replies.MenuMain)
				return Reply{Text: replies.Substitute(qr.Response, vars)}, true
			}
		}
	}
	return Reply{}, false
}

func (r *Router) handleMain(session *dialog.Session, doc replies.Document, vars map[string]string, digit string) Reply {
	switch digit {
	case "1", "2", "3":
		menuID := categoryMenus[digit]
		session.Push(menuID)
		return Reply{Text: r.renderMenu(doc, vars, menuID)}
	case "4":
		return Reply{Text: replies.Substitute(doc.PricingText, vars)}
	case "5":
		return Reply{Text: replies.Substitute(doc.ContactInfo, vars)}
	default:
		return Reply{Text: doc.ErrorPrefix + "\n\n" + r.renderMenu(doc, vars, replies.MenuMain)}
	}
}

func (r *Router) handleCategory(session *dialog.Session, doc replies.Document, vars map[string]string, digit string) Reply {
	if digit != "" {
		key := session.CurrentMenuID + "." + digit
		if detail, ok := doc.Systems[key]; ok {
			session.LastSystemKey = key
			reply := Reply{Text: detail.Title + "\n" + replies.Substitute(detail.Description, vars) + backHint}
			if detail.ImagePath != "" {
				reply.ImagePath = detail.ImagePath
				reply.ImageCaption = detail.Title
			}
			return reply
		}
	}
	return Reply{Text: doc.ErrorPrefix + "\n\n" + r.renderMenu(doc, vars, session.CurrentMenuID)}
}

func (r *Router) handleBack(session *dialog.Session, doc replies.Document, vars map[string]string) Reply {
	if session.Back() {
		return Reply{Text: r.renderMenu(doc, vars, session.CurrentMenuID)}
	}
	// Already at the floor: re-render main without touching history.
	return Reply{Text: r.renderMenu(doc, vars, replies.MenuMain)}
}

func (r *Router) renderMenu(doc replies.Document, vars map[string]string, menuID string) string {
	text, ok := doc.Menus[menuID]
	if !ok {
		r.logger.Warn("menu text missing", slog.String("menu", menuID))
		return ErrSystemText
	}
	return replies.Substitute(text, vars)
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func usageError() Reply {
	return Reply{Text: "للرد على تذكرة أرسل:\nmessage #<رقم التذكرة> <نص الرسالة>\nأو أرسل 0 للرجوع للقائمة الرئيسية."}
}
