package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"helpinghands/internal/assistant"
	assistanthandler "helpinghands/internal/assistant/handler"
	"helpinghands/internal/donor"
	donorservice "helpinghands/internal/donor/service"
	"helpinghands/internal/emergency"
	emergencyservice "helpinghands/internal/emergency/service"
	httpapi "helpinghands/internal/http"
	notificationhandler "helpinghands/internal/notification/handler"
	"helpinghands/internal/notification/notifier"
	notificationservice "helpinghands/internal/notification/service"
	"helpinghands/internal/platform/config"
	"helpinghands/internal/platform/httpserver"
	"helpinghands/internal/platform/kafka"
	"helpinghands/internal/platform/logger"
	"helpinghands/internal/platform/metrics"
	"helpinghands/internal/platform/redis"
	ratelimit "helpinghands/internal/ratelimit/middleware"
	ratelimitmodels "helpinghands/internal/ratelimit/models"
	"helpinghands/internal/ratelimit/store/bucket"
	"helpinghands/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifierOpts := []notifier.Option{notifier.WithLogger(log), notifier.WithMetrics(m)}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifierOpts = append(notifierOpts, notifier.WithSink(notifier.NewRedisSink(redisClient.Client, cfg.Redis.NotifyChannel)))
		log.Info("redis notification sink enabled", "channel", cfg.Redis.NotifyChannel)
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotifyTopic)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		notifierOpts = append(notifierOpts, notifier.WithSink(notifier.NewKafkaSink(producer)))
		log.Info("kafka notification sink enabled", "topic", producer.Topic())
	}

	notify := notifier.New(st.notifications, notifierOpts...)

	var buckets ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient.Client)
	}
	limiter := ratelimit.New(buckets, map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
		ratelimitmodels.ClassAlert: {Requests: cfg.RateLimit.AlertsPerWindow, Window: cfg.RateLimit.Window},
		ratelimitmodels.ClassAI:    {Requests: cfg.RateLimit.AIPerWindow, Window: cfg.RateLimit.Window},
	}, log, ratelimit.WithMetrics(m), ratelimit.WithDisabled(cfg.RateLimit.Disabled))

	ai := assistant.New(assistant.NewGeminiClient(cfg.AI),
		assistant.WithTimeout(cfg.AI.Timeout),
		assistant.WithBreaker(circuit.New("gemini")),
		assistant.WithLogger(log),
		assistant.WithMetrics(m),
	)

	donorSvc := donor.NewService(st.donors,
		donorservice.WithLogger(log),
		donorservice.WithMetrics(m),
		donorservice.WithNotifier(notify),
	)
	emergencySvc := emergency.NewService(st.emergencies, st.donors, notify, ai,
		emergencyservice.WithLogger(log),
		emergencyservice.WithMetrics(m),
	)
	notificationSvc := notificationservice.New(st.notifications, st.donors, notificationservice.WithLogger(log))

	donorHandler := donor.NewHandler(donorSvc, log)
	emergencyHandler := emergency.NewHandler(emergencySvc, log)

	router := httpapi.NewRouter(httpapi.Config{
		AdminToken:         cfg.Server.AdminToken,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, httpapi.Deps{
		Handlers: []httpapi.Routes{
			donorHandler,
			emergencyHandler,
			assistanthandler.New(ai, log),
			notificationhandler.New(notificationSvc, log),
		},
		Admin:       []httpapi.AdminRoutes{donorHandler, emergencyHandler},
		Donors:      donorSvc,
		Emergencies: emergencySvc,
		Metrics:     m,
		Gatherer:    reg,
		Logger:      log,
		RateLimit:   limiter,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting helpinghands", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
