package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gobazaar/marketcore/internal/config"
	"github.com/gobazaar/marketcore/internal/directory"
	"github.com/gobazaar/marketcore/internal/handler"
	"github.com/gobazaar/marketcore/internal/kafka"
	"github.com/gobazaar/marketcore/internal/observability"
	"github.com/gobazaar/marketcore/internal/outbox"
	"github.com/gobazaar/marketcore/internal/repository/postgres"
	"github.com/gobazaar/marketcore/internal/service"
	"github.com/gobazaar/marketcore/internal/tx"
)

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	dir := directory.NewCached(directory.NewClient(cfg.DirectoryURL), rdb)

	orderRepo := &postgres.OrderRepository{DB: db}
	messageRepo := &postgres.MessageRepository{DB: db}
	outboxRepo := &outbox.Repository{DB: db}
	txMgr := &tx.Manager{DB: db}

	orderSvc := service.NewOrderService(orderRepo, outboxRepo, dir, txMgr, log)
	convSvc := service.NewConversationService(messageRepo, outboxRepo, dir, txMgr, log)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	publisher := outbox.NewPublisher(outboxRepo, producer, log)

	router := handler.NewRouter(
		handler.NewOrderHandler(orderSvc, dir),
		handler.NewMessageHandler(convSvc),
		db,
		cfg,
	)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server started", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		publisher.Start(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("shutdown complete")
}
