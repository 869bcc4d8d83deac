package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/asketd/simplex-exchange-bot/internal/bot"
	"github.com/asketd/simplex-exchange-bot/internal/bot/handlers"
	apperrors "github.com/asketd/simplex-exchange-bot/internal/errors"
	"github.com/asketd/simplex-exchange-bot/internal/exchange"
	"github.com/asketd/simplex-exchange-bot/internal/health"
	"github.com/asketd/simplex-exchange-bot/internal/lifecycle"
	"github.com/asketd/simplex-exchange-bot/internal/qr"
	"github.com/asketd/simplex-exchange-bot/internal/ratelimit"
	"github.com/asketd/simplex-exchange-bot/internal/session"
	"github.com/asketd/simplex-exchange-bot/internal/tracker"
	"github.com/asketd/simplex-exchange-bot/internal/transport/simplex"
	"github.com/asketd/simplex-exchange-bot/pkg/config"
	"github.com/asketd/simplex-exchange-bot/pkg/graceful"
	"github.com/asketd/simplex-exchange-bot/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	log.Info("starting exchange bot",
		slog.String("env", cfg.AppEnv),
		slog.String("server_addr", cfg.Server.Addr),
		slog.String("log_level", cfg.Log.Level))

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	cli, err := simplex.StartCLI(ctx, cfg.Simplex, log)
	if err != nil {
		return err
	}

	transport := simplex.NewClient(cfg.Simplex, log)
	if err := transport.Connect(ctx); err != nil {
		return err
	}

	apiClient := exchange.NewClient(cfg.Exchange, log)

	currencies := handlers.NewCurrencies()
	currencies.Refresh(ctx, apiClient, log)

	sessions := session.NewStore()
	cooldown := ratelimit.NewCooldown(cfg.Bot.Cooldown)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	qrGen := qr.NewGenerator("", log)

	orderTracker := tracker.New(apiClient, transport, log, cfg.Bot.TrackerInterval, cfg.Bot.StallTimeout)

	router := bot.New(transport, bot.Handlers{
		Help:     handlers.NewHelp(transport),
		Info:     handlers.NewInfo(apiClient, transport),
		Exchange: handlers.NewExchange(apiClient, transport, sessions, orderTracker, qrGen, currencies, cfg.Bot, log),
		Order:    handlers.NewOrder(apiClient, transport, log),
		Refund:   handlers.NewRefund(apiClient, transport),
		Support:  handlers.NewSupport(apiClient, transport),
	}, sessions, cooldown, errHandler, log)

	checker := health.NewChecker(log)
	checker.AddCheck("exchange_api", apiClient)
	checker.AddCheck("simplex", transport)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())

	httpServer := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}, cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("simplex_client", func(context.Context) error {
		return transport.Close()
	})
	shutdown.Register("simplex_cli", func(context.Context) error {
		if cli.Process != nil {
			return cli.Process.Kill()
		}
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return transport.Run(gctx, router)
	})
	g.Go(func() error {
		return orderTracker.Run(gctx)
	})
	g.Go(func() error {
		return httpServer.ListenAndServe(gctx)
	})

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}

	log.Info("exchange bot stopped")
	return nil
}
