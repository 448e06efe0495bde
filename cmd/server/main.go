package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	eventshandler "egresados/internal/events/handler"
	eventsservice "egresados/internal/events/service"
	historyhandler "egresados/internal/history/handler"
	historyservice "egresados/internal/history/service"
	jwttoken "egresados/internal/jwt_token"
	"egresados/internal/platform/config"
	"egresados/internal/platform/httpserver"
	"egresados/internal/platform/logger"
	"egresados/internal/platform/metrics"
	profilehandler "egresados/internal/profile/handler"
	"egresados/internal/profile/notify"
	profileservice "egresados/internal/profile/service"
	httptransport "egresados/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	m := metrics.New()

	trackerOpts := []profileservice.Option{
		profileservice.WithLogger(log),
		profileservice.WithMetrics(m),
	}
	if deps.producer != nil {
		publisher := notify.NewPublisher(deps.producer, cfg.Kafka.ProfileTopic,
			notify.WithLogger(log),
			notify.WithMetrics(m),
		)
		pubCtx, stopPublisher := context.WithCancel(ctx)
		publisherDone := make(chan struct{})
		go func() {
			defer close(publisherDone)
			_ = publisher.Run(pubCtx)
		}()
		// Flush before deps.Close shuts the producer down.
		defer func() {
			stopPublisher()
			<-publisherDone
		}()
		trackerOpts = append(trackerOpts, profileservice.WithNotifier(publisher))
	}
	tracker := profileservice.New(deps.profiles, deps.audit, deps.runner, trackerOpts...)

	history := historyservice.New(deps.audit, deps.directory, historyservice.WithLogger(log))

	eventOpts := []eventsservice.Option{
		eventsservice.WithLogger(log),
		eventsservice.WithMetrics(m),
	}
	if deps.images != nil {
		eventOpts = append(eventOpts, eventsservice.WithImageStore(deps.images))
	}
	events := eventsservice.New(deps.catalog, deps.ledger, deps.runner, deps.directory, deps.profiles, eventOpts...)

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	router := httptransport.NewRouter(httptransport.Options{
		Logger:       log,
		Metrics:      m,
		Validator:    jwttoken.NewMiddlewareAdapter(jwt),
		HealthChecks: deps.healthChecks,
	},
		profilehandler.New(tracker, log),
		historyhandler.New(history, log),
		eventshandler.New(events, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting egresados", "addr", cfg.Server.Addr, "env", cfg.Server.Environment, "storage", deps.storage)
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}
