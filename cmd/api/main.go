package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
	"github.com/ariefcatur/go-catalog-api/internal/config"
	"github.com/ariefcatur/go-catalog-api/internal/httpx"
	kafkax "github.com/ariefcatur/go-catalog-api/internal/kafka"
	"github.com/ariefcatur/go-catalog-api/internal/logger"
	"github.com/ariefcatur/go-catalog-api/internal/mongo"
	"github.com/ariefcatur/go-catalog-api/internal/postgres"
	"github.com/ariefcatur/go-catalog-api/internal/telemetry"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Service:  cfg.ServiceName,
		Version:  version,
		Env:      cfg.AppEnv,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Error("tracing setup", slog.Any("err", err))
		os.Exit(1)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("store connect", slog.String("driver", cfg.StoreDriver), slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("store ready", slog.String("driver", cfg.StoreDriver))

	svc := &catalog.Service{
		Products: store,
		Orders:   store,
		Log:      log,
		Name:     cfg.ServiceName,
	}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers)
		svc.Events = prod
		log.Info("kafka events enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	h := &httpx.CatalogHandler{Service: svc, DB: store, Log: log, Version: version}
	h.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", slog.Any("err", err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutting down", slog.String("signal", s.String()))
	case <-ctx.Done():
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", slog.Any("err", err))
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			log.Warn("kafka close", slog.Any("err", err))
		}
	}
	if err := store.Close(ctx2); err != nil {
		log.Warn("store close", slog.Any("err", err))
	}
	if err := shutdownTracing(ctx2); err != nil {
		log.Warn("tracing shutdown", slog.Any("err", err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (catalog.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err := mongo.Connect(connectCtx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(connectCtx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil
	default:
		db, err := postgres.Connect(connectCtx, cfg.PostgresDSN, postgres.PoolOptions{MaxConns: int32(cfg.PostgresConns)})
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(connectCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &postgres.Store{DB: db}, nil
	}
}
