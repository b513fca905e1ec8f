package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/ticket"
)

// TicketService is the slice of the orchestrator the ticket endpoints need:
// aggregated access to every identity's ticket store.
type TicketService interface {
	ListTickets(status ticket.Status) []ticket.Ticket
	GetTicket(id string) (ticket.Ticket, error)
	UpdateTicketStatus(id string, status ticket.Status) (ticket.Ticket, error)
	AppendTicketMessage(id, text string, fromUser bool) (ticket.Ticket, error)
}

// TicketsHandler exposes support tickets to admins: listing, status
// transitions, and threaded staff replies.
type TicketsHandler struct {
	tickets TicketService
	logger  *slog.Logger
}

type ticketStatusPayload struct {
	Status string `json:"status"`
}

type ticketMessagePayload struct {
	Text string `json:"text"`
}

func NewTicketsHandler(log *slog.Logger, tickets TicketService) *TicketsHandler {
	return &TicketsHandler{
		tickets: tickets,
		logger:  log.With(slog.String("handler", "tickets")),
	}
}

func (h *TicketsHandler) Register(e *echo.Echo) {
	g := e.Group("/tickets")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id/status", h.UpdateStatus)
	g.POST("/:id/messages", h.AppendMessage)
}

// List returns every ticket across identities, optionally narrowed by
// ?status=.
func (h *TicketsHandler) List(c echo.Context) error {
	status := ticket.Status(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && !ticket.ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status: "+string(status))
	}
	return c.JSON(http.StatusOK, h.tickets.ListTickets(status))
}

func (h *TicketsHandler) Get(c echo.Context) error {
	t, err := h.tickets.GetTicket(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketsHandler) UpdateStatus(c echo.Context) error {
	var payload ticketStatusPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.tickets.UpdateTicketStatus(c.Param("id"), ticket.Status(payload.Status))
	if err != nil {
		return httpError(err)
	}
	h.logger.Info("ticket status changed",
		slog.String("ticket_id", t.ID), slog.String("status", string(t.Status)))
	return c.JSON(http.StatusOK, t)
}

// AppendMessage records a staff reply on the ticket thread.
func (h *TicketsHandler) AppendMessage(c echo.Context) error {
	var payload ticketMessagePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(payload.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	t, err := h.tickets.AppendTicketMessage(c.Param("id"), payload.Text, false)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}
