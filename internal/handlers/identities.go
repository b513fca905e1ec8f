package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/orchestrator"
)

// IdentitiesHandler manages the messaging-identity pool: provisioning,
// pairing, QR retrieval, and retirement.
type IdentitiesHandler struct {
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
}

type provisionPayload struct {
	OwnerUserID string `json:"owner_user_id"`
	DisplayName string `json:"display_name"`
}

func NewIdentitiesHandler(log *slog.Logger, orch *orchestrator.Orchestrator) *IdentitiesHandler {
	return &IdentitiesHandler{
		orch:   orch,
		logger: log.With(slog.String("handler", "identities")),
	}
}

func (h *IdentitiesHandler) Register(e *echo.Echo) {
	g := e.Group("/identities")
	g.GET("", h.List)
	g.POST("", h.Provision)
	g.GET("/export", h.Export)
	g.POST("/pair-all", h.PairAll)
	g.POST("/stop-all", h.StopAll)
	g.GET("/:id", h.Get)
	g.POST("/:id/pair", h.Pair)
	g.GET("/:id/qr", h.QR)
	g.GET("/:id/filter-stats", h.FilterStats)
	g.DELETE("/:id", h.Stop)
}

func (h *IdentitiesHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Export())
}

// Export returns the full identity roster for backup tooling. Same payload
// as List under a stable path.
func (h *IdentitiesHandler) Export(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Export())
}

// PairAll re-pairs every registered identity in the background. Individual
// failures surface in the logs, not in this response.
func (h *IdentitiesHandler) PairAll(c echo.Context) error {
	go h.orch.StartAll(context.Background())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// StopAll disconnects every identity while keeping them registered.
func (h *IdentitiesHandler) StopAll(c echo.Context) error {
	h.orch.StopAll()
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Provision registers a new identity. A full pool answers 409 with no side
// effects.
func (h *IdentitiesHandler) Provision(c echo.Context) error {
	var payload provisionPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(payload.OwnerUserID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_user_id is required")
	}
	identity, err := h.orch.Provision(payload.OwnerUserID, payload.DisplayName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, identity)
}

func (h *IdentitiesHandler) Get(c echo.Context) error {
	identity, err := h.orch.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, identity)
}

// Pair starts (or resumes) the platform connection. An unpaired identity
// begins emitting QR payloads retrievable via the qr endpoint.
func (h *IdentitiesHandler) Pair(c echo.Context) error {
	if err := h.orch.Pair(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	identity, err := h.orch.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, identity)
}

func (h *IdentitiesHandler) QR(c echo.Context) error {
	code, err := h.orch.QR(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"qr": code})
}

func (h *IdentitiesHandler) FilterStats(c echo.Context) error {
	stats, err := h.orch.FilterStats(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Stop disconnects and retires the identity, freeing its capacity slot.
func (h *IdentitiesHandler) Stop(c echo.Context) error {
	if err := h.orch.Stop(c.Param("id")); err != nil {
		return httpError(err)
	}
	h.logger.Info("identity retired", slog.String("session_id", c.Param("id")))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
