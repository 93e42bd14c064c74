package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront-cart/internal/adapter/handler"
	"github.com/rl1809/storefront-cart/internal/adapter/leadclient"
	"github.com/rl1809/storefront-cart/internal/adapter/mail"
	"github.com/rl1809/storefront-cart/internal/adapter/storage"
	"github.com/rl1809/storefront-cart/internal/config"
	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
	"github.com/rl1809/storefront-cart/internal/port"
)

const (
	workerCount = 4
	queueSize   = 1000
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := handler.NewHealthReporter()

	// Session state: Redis, or process memory when Redis is unreachable
	var stores service.StoreFactory
	var guard port.IdempotencyGuard

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, session state kept in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		rdb = nil
		stores = storage.NewMemoryAdapter(cfg.StorageQuotaBytes).Scope
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		redisAdapter := storage.NewRedisAdapter(rdb, cfg.StorageQuotaBytes, cfg.StateTTL)
		stores = redisAdapter.Scope
		guard = redisAdapter
	}

	// Lead storage: SQL database, or memory mode without a reachable DSN
	db, repo := openLeadRepository(ctx, cfg, logger)
	health.SetLeadStorage(db != nil)

	var notifier port.LeadNotifier
	if cfg.SendGridAPIKey != "" {
		notifier = mail.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.LeadNotifyFrom, cfg.LeadNotifyTo, logger)
	} else {
		notifier = mail.NewLogNotifier(logger)
	}

	queue := service.NewNotificationQueue(queueSize)
	leadService := service.NewLeadService(repo, guard, queue, logger)

	// Start notification workers
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, queue.Queue(), notifier, logger)
		}(i)
	}
	logger.Info("started notification workers", zap.Int("count", workerCount))

	submitter := leadclient.NewHTTPClient(cfg.LeadEndpoint, cfg.SubmitTimeout, logger)
	registry := service.NewRegistry(stores, submitter, service.RegistryConfig{
		Currency:          cfg.Currency,
		SubmitTimeout:     cfg.SubmitTimeout,
		PersistTimeout:    cfg.PersistTimeout,
		PersistRetryAfter: cfg.PersistRetryAfter,
		OnDegraded: func(sessionID string, err error) {
			logger.Warn("session persistence degraded", zap.String("session_id", sessionID), zap.Error(err))
			health.PersistenceDegraded(sessionID)
		},
		OnRecovered: func(sessionID string) {
			health.PersistenceRecovered(sessionID)
			logger.Info("session persistence recovered",
				zap.String("session_id", sessionID),
				zap.Int("degraded_sessions", health.DegradedSessions()),
			)
		},
	}, logger)

	go registry.RunJanitor(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(registry, leadService, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Ends open event streams and the janitor
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	health.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close notification queue and wait for workers
	queue.Close()
	wg.Wait()
	logger.Info("workers stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("connections closed")
}

func openLeadRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sql.DB, port.LeadRepository) {
	if cfg.LeadDBDSN == "" {
		logger.Info("no lead database configured, leads kept in memory")
		return nil, storage.NewMemoryLeadRepository()
	}

	dialect := storage.Dialect(cfg.LeadDBDriver)
	db, err := sql.Open(string(dialect), cfg.LeadDBDSN)
	if err != nil {
		logger.Warn("lead database unavailable, leads kept in memory", zap.Error(err))
		return nil, storage.NewMemoryLeadRepository()
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	adapter := storage.NewSQLAdapter(db, dialect)
	err = db.PingContext(ctx)
	if err == nil {
		err = adapter.EnsureSchema(ctx)
	}
	if err != nil {
		logger.Warn("lead database unavailable, leads kept in memory", zap.String("driver", cfg.LeadDBDriver), zap.Error(err))
		db.Close()
		return nil, storage.NewMemoryLeadRepository()
	}

	logger.Info("connected to lead database", zap.String("driver", cfg.LeadDBDriver))
	return db, adapter
}

func workerLoop(id int, queue <-chan domain.Lead, notifier port.LeadNotifier, logger *zap.Logger) {
	for lead := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

		if err := notifier.NotifyLead(ctx, lead); err != nil {
			logger.Warn("lead notification failed", zap.Int("worker", id), zap.String("lead_id", lead.ID), zap.Error(err))
		} else {
			logger.Debug("lead notification sent", zap.Int("worker", id), zap.String("lead_id", lead.ID))
		}

		cancel()
	}
}
