package router

import (
	"log/slog"
	"strings"

	"github.com/ebdaasoft/whatsdesk/internal/dialog"
	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/ticket"
)

const categoryPrompt = "ما نوع المشكلة؟\n" +
	"1️⃣ مشكلة تقنية\n" +
	"2️⃣ استفسار\n" +
	"3️⃣ شكوى\n" +
	"4️⃣ اقتراح\n" +
	"0️⃣ إلغاء"

// problemCategories maps sub-flow digits to ticket categories.
var problemCategories = map[string]ticket.Category{
	"1": ticket.CategoryTechnical,
	"2": ticket.CategoryInquiry,
	"3": ticket.CategoryComplaint,
	"4": ticket.CategorySuggestion,
}

// startProblemFlow enters the report sub-flow and the follow-up state. The
// prompt is prefixed with the caller's existing tickets so follow-ups are
// one command away.
func (r *Router) startProblemFlow(session *dialog.Session) Reply {
	session.ReportingProblem = true
	session.ProblemStep = dialog.ProblemStepCategory
	session.ProblemCategory = ""
	if session.CurrentMenuID != MenuProblemFollowup {
		session.Push(MenuProblemFollowup)
	}
	listing := r.renderTicketListing(session.UserID)
	if listing != "" {
		return Reply{Text: listing + "\n\n" + categoryPrompt}
	}
	return Reply{Text: categoryPrompt}
}

// handleProblemStep advances the active sub-flow. It owns dispatch entirely
// while ReportingProblem is set.
func (r *Router) handleProblemStep(session *dialog.Session, doc replies.Document, body, displayName string) Reply {
	digit := SingleDigit(body)
	if digit == "0" {
		session.ClearProblemFlow()
		session.ResetToRoot(replies.MenuMain)
		vars := replies.SubstitutionVars(doc, displayName)
		return Reply{Text: r.renderMenu(doc, vars, replies.MenuMain)}
	}

	switch session.ProblemStep {
	case dialog.ProblemStepCategory:
		category, ok := problemCategories[digit]
		if !ok {
			return Reply{Text: categoryPrompt}
		}
		session.ProblemCategory = string(category)
		session.ProblemStep = dialog.ProblemStepDescription
		return Reply{Text: "اكتب وصف المشكلة بالتفصيل وسنقوم بمتابعتها فوراً.\n0️⃣ إلغاء"}

	case dialog.ProblemStepDescription:
		// The entire message is the description, no validation.
		created, err := r.tickets.Create(session.UserID, displayName, ticket.Category(session.ProblemCategory), body)
		session.ClearProblemFlow()
		if err != nil {
			r.logger.Error("ticket create failed", slog.Any("error", err))
			return Reply{Text: ErrSystemText}
		}
		if r.notifier != nil {
			// Fire-and-forget: the result is observable but never blocks
			// nor reaches the end user.
			_ = r.notifier.NotifyCreated(created)
		}
		return Reply{Text: "✅ تم تسجيل المشكلة برقم #" + created.ShortID() +
			"\nسيتواصل معك فريق الدعم قريباً.\nللمتابعة أرسل:\nmessage #" + created.ShortID() + " <نص الرسالة>"}

	default:
		// Inconsistent sub-flow state; abandon it.
		session.ClearProblemFlow()
		return Reply{Text: ErrSystemText}
	}
}

// handleFollowupCommand parses "message #<prefix> <text>" and appends to the
// first matching ticket owned by the caller.
func (r *Router) handleFollowupCommand(session *dialog.Session, body string) Reply {
	fields := strings.Fields(body)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "message") {
		return usageError()
	}
	prefix := strings.TrimPrefix(fields[1], "#")
	if prefix == "" {
		return usageError()
	}
	text := strings.Join(fields[2:], " ")

	found, err := r.tickets.FindByPrefix(session.UserID, prefix)
	if err != nil {
		return Reply{Text: "لم يتم العثور على تذكرة بالرقم #" + prefix}
	}
	updated, err := r.tickets.AppendMessage(found.ID, text, true)
	if err != nil {
		r.logger.Error("ticket append failed", slog.Any("error", err))
		return Reply{Text: ErrSystemText}
	}
	if r.notifier != nil {
		_ = r.notifier.NotifyUpdated(updated, text)
	}
	return Reply{Text: "✅ تم إضافة ردك إلى التذكرة #" + updated.ShortID()}
}

// renderTicketListing partitions the caller's tickets into active and
// resolved and renders both, or returns "" when the caller has none.
func (r *Router) renderTicketListing(userID string) string {
	active, resolved := r.tickets.ListByUser(userID)
	if len(active) == 0 && len(resolved) == 0 {
		return ""
	}
	var b strings.Builder
	if len(active) > 0 {
		b.WriteString("تذاكرك الحالية:\n")
		for _, t := range active {
			b.WriteString("• #" + t.ShortID() + " (" + ticket.CategoryLabels[t.Category] + ") " +
				truncate(t.Problem, 40) + " — " + ticket.StatusLabels[t.Status] + "\n")
		}
	}
	if len(resolved) > 0 {
		b.WriteString("تذاكر تم حلها:\n")
		for _, t := range resolved {
			b.WriteString("• #" + t.ShortID() + " (" + ticket.CategoryLabels[t.Category] + ") " +
				truncate(t.Problem, 40) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
