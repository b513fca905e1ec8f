package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebdaasoft/whatsdesk/internal/orchestrator"
	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/ticket"
	"github.com/ebdaasoft/whatsdesk/internal/transport"
)

// httpError maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 with the raw message.
func httpError(err error) error {
	switch {
	case errors.Is(err, replies.ErrValidation), errors.Is(err, ticket.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, replies.ErrNotFound),
		errors.Is(err, ticket.ErrNotFound),
		errors.Is(err, orchestrator.ErrIdentityNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, orchestrator.ErrCapacityExceeded),
		errors.Is(err, orchestrator.ErrQRUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, transport.ErrUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
