// Package server assembles the echo instance serving the admin API.
package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ebdaasoft/whatsdesk/internal/handlers"
)

type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(addr string, log *slog.Logger, pingHandler *handlers.PingHandler, repliesHandler *handlers.RepliesHandler, settingsHandler *handlers.SettingsHandler, ticketsHandler *handlers.TicketsHandler, identitiesHandler *handlers.IdentitiesHandler) *Server {
	if addr == "" {
		addr = ":8080"
	}
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("error", v.Error))
				log.Warn("request", attrs...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	}))

	if pingHandler != nil {
		pingHandler.Register(e)
	}
	if repliesHandler != nil {
		repliesHandler.Register(e)
	}
	if settingsHandler != nil {
		settingsHandler.Register(e)
	}
	if ticketsHandler != nil {
		ticketsHandler.Register(e)
	}
	if identitiesHandler != nil {
		identitiesHandler.Register(e)
	}

	return &Server{
		echo: e,
		addr: addr,
	}
}

func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
