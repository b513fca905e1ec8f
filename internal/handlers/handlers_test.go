package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/ticket"
)

// singleStoreTickets adapts one ticket store to the aggregated interface the
// handler expects from the orchestrator.
type singleStoreTickets struct{ store *ticket.Store }

func (s singleStoreTickets) ListTickets(status ticket.Status) []ticket.Ticket {
	return s.store.List(status)
}

func (s singleStoreTickets) GetTicket(id string) (ticket.Ticket, error) {
	return s.store.Get(id)
}

func (s singleStoreTickets) UpdateTicketStatus(id string, status ticket.Status) (ticket.Ticket, error) {
	return s.store.UpdateStatus(id, status)
}

func (s singleStoreTickets) AppendTicketMessage(id, text string, fromUser bool) (ticket.Ticket, error) {
	return s.store.AppendMessage(id, text, fromUser)
}

func newTicketsEcho(t *testing.T) (*echo.Echo, *ticket.Store) {
	t.Helper()
	store := ticket.NewStore(nil, filepath.Join(t.TempDir(), "tickets.json"))
	e := echo.New()
	NewTicketsHandler(slog.Default(), singleStoreTickets{store}).Register(e)
	return e, store
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTicketStatusEndpoint(t *testing.T) {
	t.Parallel()

	e, store := newTicketsEcho(t)
	created, err := store.Create("u", "n", ticket.CategoryTechnical, "مشكلة")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := doJSON(e, http.MethodPut, "/tickets/"+created.ID+"/status", `{"status":"resolved"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got ticket.Ticket
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != ticket.StatusResolved {
		t.Fatalf("status not applied: %+v", got)
	}

	// Unknown status maps to 400, unknown id to 404.
	if rec := doJSON(e, http.MethodPut, "/tickets/"+created.ID+"/status", `{"status":"nah"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodPut, "/tickets/missing/status", `{"status":"resolved"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTicketListStatusFilterValidation(t *testing.T) {
	t.Parallel()

	e, _ := newTicketsEcho(t)
	if rec := doJSON(e, http.MethodGet, "/tickets?status=bogus", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/tickets?status=new", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTicketStaffReplyEndpoint(t *testing.T) {
	t.Parallel()

	e, store := newTicketsEcho(t)
	created, _ := store.Create("u", "n", ticket.CategoryInquiry, "سؤال")

	rec := doJSON(e, http.MethodPost, "/tickets/"+created.ID+"/messages", `{"text":"تم الرد"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got ticket.Ticket
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].FromUser {
		t.Fatalf("staff reply must append with from_user=false: %+v", got.Messages)
	}

	if rec := doJSON(e, http.MethodPost, "/tickets/"+created.ID+"/messages", `{"text":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}
}

func TestSettingsPatchEndpoint(t *testing.T) {
	t.Parallel()

	svc := replies.NewService(nil, t.TempDir())
	if err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	e := echo.New()
	NewSettingsHandler(slog.Default(), svc).Register(e)

	rec := doJSON(e, http.MethodPatch, "/settings", `{"auto_reply":false,"min_message_length":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got replies.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AutoReply || got.Filter.MinMessageLength != 4 {
		t.Fatalf("patch not applied: %+v", got)
	}
	if !got.Filter.Enabled {
		t.Fatalf("untouched fields must keep defaults: %+v", got.Filter)
	}

	if rec := doJSON(e, http.MethodPatch, "/settings", `{"min_message_length":-3}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative length, got %d", rec.Code)
	}
}

func TestRepliesMenuEndpoints(t *testing.T) {
	t.Parallel()

	svc := replies.NewService(nil, t.TempDir())
	if err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	e := echo.New()
	NewRepliesHandler(slog.Default(), svc).Register(e)

	rec := doJSON(e, http.MethodPut, "/replies/menus/main", `{"text":"قائمة جديدة"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(e, http.MethodPut, "/replies/menus/ghost", `{"text":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown menu, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodDelete, "/replies/quick-replies/ghost", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quick reply, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodPost, "/replies/quick-replies", `{"id":"promo","triggers":["عرض"],"response":"تفاصيل"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
