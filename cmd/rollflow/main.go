package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Spok95/rollflow/internal/bot"
	"github.com/Spok95/rollflow/internal/broadcast"
	"github.com/Spok95/rollflow/internal/config"
	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/quality"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/infra/db"
	httpx "github.com/Spok95/rollflow/internal/infra/http"
	"github.com/Spok95/rollflow/internal/infra/logger"
	"github.com/Spok95/rollflow/internal/infra/metrics"
	"github.com/Spok95/rollflow/internal/infra/telegram"
	"github.com/Spok95/rollflow/internal/production"
	"github.com/Spok95/rollflow/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	if loc, err := time.LoadLocation(cfg.App.Timezone); err == nil {
		time.Local = loc
	} else {
		log.Warn("unknown timezone, using system default", "tz", cfg.App.Timezone, "err", err)
	}

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	snaps := snapshot.NewService(snapshot.NewPGLoader(pool), m)
	hub := broadcast.NewHub(snaps, logger.With(log, "broadcast"), m)

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("rollflow"))
		if err != nil {
			log.Error("nats connect failed", "url", cfg.NATS.URL, "err", err)
			return
		}
		defer func() { _ = nc.Drain() }()

		bridge := broadcast.NewNATSBridge(nc, cfg.NATS.SubjectPrefix, logger.With(log, "nats"))
		hub.AddSink(bridge)
		if err := bridge.Listen(hub); err != nil {
			log.Error("nats subscribe failed", "err", err)
			return
		}
		log.Info("nats bridge started", "snapshot_subject", bridge.SnapshotSubject(), "request_subject", bridge.RequestSubject())
	}

	var (
		notifier production.Notifier
		tgAPI    *tgbotapi.BotAPI
	)
	if cfg.Telegram.Token != "" {
		tgAPI, err = telegram.Connect(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram disabled", "err", err)
		} else {
			notifier = telegram.New(tgAPI, cfg.Telegram.AdminChatID)
		}
	}

	svc := production.NewService(production.Deps{
		Rolls:     rolls.NewRepo(pool),
		Machines:  machines.NewRepo(pool),
		JobOrders: joborders.NewRepo(pool),
		Receiving: receiving.NewRepo(pool),
		Warnings:  quality.NewRepo(pool),
		Notifier:  notifier,
		Trigger:   hub,
		Metrics:   m,
		Log:       logger.With(log, "production"),
	})

	go hub.Run(ctx)

	if tgAPI != nil {
		b := bot.New(tgAPI, logger.With(log, "bot"), cfg.Telegram.AdminChatID, snaps, svc, quality.NewRepo(pool))
		go func() {
			if err := b.Run(ctx, 30); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
		log.Info("telegram bot started")
	}

	api := httpx.NewAPI(svc, snaps, hub, httpx.APIConfig{
		PushTimeout: cfg.Realtime.PushTimeout,
		Heartbeat:   cfg.Realtime.Heartbeat,
	}, logger.With(log, "http"), m)

	opts := httpx.Options{Addr: cfg.HTTP.Addr, ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout}
	if cfg.Metrics.Enabled {
		opts.Metrics = reg
	}
	srv := httpx.New(opts, api)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
