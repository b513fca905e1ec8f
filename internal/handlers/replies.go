package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/replies"
)

// RepliesHandler exposes the admin surface for the replies document: menu
// texts, quick replies, and system details.
type RepliesHandler struct {
	service *replies.Service
	logger  *slog.Logger
}

type menuTextPayload struct {
	Text string `json:"text"`
}

func NewRepliesHandler(log *slog.Logger, service *replies.Service) *RepliesHandler {
	return &RepliesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "replies")),
	}
}

func (h *RepliesHandler) Register(e *echo.Echo) {
	g := e.Group("/replies")
	g.GET("", h.Get)
	g.POST("/reload", h.Reload)
	g.PUT("/menus/:menu_id", h.SetMenuText)
	g.POST("/quick-replies", h.UpsertQuickReply)
	g.DELETE("/quick-replies/:id", h.DeleteQuickReply)
	g.PUT("/systems", h.UpsertSystem)
}

func (h *RepliesHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Replies())
}

// Reload re-reads the persisted documents, discarding unsaved in-memory
// state. Used after hand-editing the JSON on disk.
func (h *RepliesHandler) Reload(c echo.Context) error {
	if err := h.service.Reload(); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *RepliesHandler) SetMenuText(c echo.Context) error {
	menuID := strings.TrimSpace(c.Param("menu_id"))
	if menuID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "menu_id is required")
	}
	var payload menuTextPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.SetMenuText(menuID, payload.Text); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *RepliesHandler) UpsertQuickReply(c echo.Context) error {
	var payload replies.QuickReply
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.UpsertQuickReply(payload); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *RepliesHandler) DeleteQuickReply(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if err := h.service.DeleteQuickReply(id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *RepliesHandler) UpsertSystem(c echo.Context) error {
	var payload replies.SystemDetail
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.UpsertSystem(payload); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
