package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/ebdaasoft/whatsdesk/internal/config"
	"github.com/ebdaasoft/whatsdesk/internal/handlers"
	"github.com/ebdaasoft/whatsdesk/internal/logger"
	"github.com/ebdaasoft/whatsdesk/internal/orchestrator"
	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/server"
	"github.com/ebdaasoft/whatsdesk/internal/transport"
	wmtransport "github.com/ebdaasoft/whatsdesk/internal/transport/whatsmeow"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideRepliesService,
			provideDialer,
			provideOrchestrator,
			provideTicketService,
			handlers.NewPingHandler,
			handlers.NewRepliesHandler,
			handlers.NewSettingsHandler,
			handlers.NewTicketsHandler,
			handlers.NewIdentitiesHandler,
			provideServer,
		),
		fx.Invoke(
			startOrchestrator,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideRepliesService(log *slog.Logger, cfg config.Config) (*replies.Service, error) {
	svc := replies.NewService(log, cfg.Data.Root)
	if err := svc.Load(); err != nil {
		return nil, fmt.Errorf("load replies: %w", err)
	}
	return svc, nil
}

func provideDialer(log *slog.Logger) transport.Dialer {
	return wmtransport.NewDialer(log)
}

func provideOrchestrator(log *slog.Logger, cfg config.Config, dialer transport.Dialer, repliesService *replies.Service) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(log, cfg, dialer, repliesService)
}

func provideTicketService(orch *orchestrator.Orchestrator) handlers.TicketService {
	return orch
}

func provideServer(cfg config.Config, log *slog.Logger, pingHandler *handlers.PingHandler, repliesHandler *handlers.RepliesHandler, settingsHandler *handlers.SettingsHandler, ticketsHandler *handlers.TicketsHandler, identitiesHandler *handlers.IdentitiesHandler) *server.Server {
	return server.NewServer(cfg.Server.Addr, log, pingHandler, repliesHandler, settingsHandler, ticketsHandler, identitiesHandler)
}

func startOrchestrator(lc fx.Lifecycle, orch *orchestrator.Orchestrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := orch.StartMaintenance(); err != nil {
				return err
			}
			go orch.StartAll(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			orch.StopMaintenance()
			orch.StopAll()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					logger.Error("server start failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			logger.Info("admin api listening", slog.String("addr", cfg.Server.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
