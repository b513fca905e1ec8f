package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/replies"
)

// SettingsHandler exposes the runtime settings document, including the
// inbound-filter configuration.
type SettingsHandler struct {
	service *replies.Service
	logger  *slog.Logger
}

func NewSettingsHandler(log *slog.Logger, service *replies.Service) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "settings")),
	}
}

func (h *SettingsHandler) Register(e *echo.Echo) {
	e.GET("/settings", h.Get)
	e.PATCH("/settings", h.Update)
}

func (h *SettingsHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Settings())
}

// Update applies a partial settings update. Absent fields keep their current
// values; the response carries the full resulting document.
func (h *SettingsHandler) Update(c echo.Context) error {
	var payload replies.UpdateSettingsRequest
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	settings, err := h.service.UpdateSettings(payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}
