package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/vanir/internal"
	"github.com/dukerupert/vanir/internal/cart"
	"github.com/dukerupert/vanir/internal/consumer"
	"github.com/dukerupert/vanir/internal/email"
	"github.com/dukerupert/vanir/internal/invoice"
	"github.com/dukerupert/vanir/internal/queue"
	"github.com/dukerupert/vanir/internal/storage"
	"github.com/dukerupert/vanir/internal/store"
	"github.com/dukerupert/vanir/internal/telemetry"
)

func newSender(cfg *internal.Config, logger zerolog.Logger) (email.Sender, error) {
	switch cfg.Email.Provider {
	case "postmark":
		return email.NewPostmarkSender(cfg.Email.PostmarkToken), nil
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	logger.Info().Str("url", cfg.NATSURL).Msg("connecting to NATS")
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("NATS connection failed: %w", err)
	}
	defer nc.Drain()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream initialization failed: %w", err)
	}
	stream, err := queue.SetupStream(ctx, js)
	if err != nil {
		return fmt.Errorf("stream setup failed: %w", err)
	}

	content, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	emails := email.NewService(sender, content, cfg.Email.From, cfg.Email.FromName, cfg.Email.OpsAddress, logger)

	renderer, err := invoice.NewHTMLRenderer()
	if err != nil {
		return fmt.Errorf("invoice renderer initialization failed: %w", err)
	}

	orders := store.NewPostgresStore(pool, logger)
	carts := cart.NewHTTPClient(cfg.CartServiceURL, logger)
	publisher := queue.NewNATSPublisher(js, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewConsumerMetrics(registry)
	telemetry.InitBusinessMetrics(registry)

	creation := consumer.NewCreationConsumer(orders, carts, publisher, logger)
	invoices := consumer.NewInvoiceConsumer(orders, content, renderer, logger)
	notifications := consumer.NewNotificationConsumer(orders, emails, logger)
	confirmations := consumer.NewConfirmationConsumer(orders, emails, logger)

	consumers := []struct {
		cfg    queue.ConsumerConfig
		handle queue.Handler
	}{
		{queue.ConsumerConfig{Name: "order-creation", Subject: queue.SubjectOrderRequest}, creation.Handle},
		{queue.ConsumerConfig{Name: "order-invoice", Subject: queue.SubjectOrderCreated}, invoices.Handle},
		{queue.ConsumerConfig{Name: "order-notification", Subject: queue.SubjectOrderCreated}, notifications.Handle},
		{queue.ConsumerConfig{Name: "order-confirmation", Subject: queue.SubjectOrderCreated}, confirmations.Handle},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		c.cfg.BatchSize = cfg.Consumer.BatchSize
		c.cfg.AckWait = cfg.Consumer.AckWait
		c.cfg.MaxDeliver = cfg.Consumer.MaxDeliver

		runner, err := queue.NewRunner(ctx, stream, c.cfg, c.handle, logger, metrics)
		if err != nil {
			return fmt.Errorf("failed to start consumer %s: %w", c.cfg.Name, err)
		}
		g.Go(func() error { return runner.Run(gctx) })
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}

	g.Go(func() error {
		logger.Info().Str("address", srv.Addr).Msg("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info().Int("consumers", len(consumers)).Msg("worker started")
	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
