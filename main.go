package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/imagestore"
	"storefront/internal/logging"
	"storefront/internal/orders"
	"storefront/internal/repository"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(logging.Config{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, ping, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("store unavailable", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	var c cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		c = cache.NewRedis(rdb, "storefront", cfg.CacheTTL)
		logger.Info("redis cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("kafka events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer pub.Close()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)

	r := handlers.NewRouter(handlers.Deps{
		Catalog:   catalog.NewService(store.Products, c, pub, imagestore.NewLocal(cfg.UploadDir), logger),
		Orders:    orders.NewService(store.Orders, store.Products, c, pub, logger),
		Accounts:  auth.NewAccounts(store.Users, tokens, logger),
		Tokens:    tokens,
		Ping:      ping,
		UploadDir: cfg.UploadDir,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	if err := store.Close(ctx); err != nil {
		logger.Error("close store", zap.Error(err))
	}
}

func openStore(cfg config.Config, logger *zap.Logger) (*repository.Store, handlers.Pinger, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.OpenSQL(database.SQLDriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("postgres connected")
		return repository.NewSQLStore(db), db.PingContext, nil
	default:
		client, err := database.Connect(cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.DBName)
		logger.Info("mongodb connected", zap.String("db", db.Name()))

		if err := database.EnsureIndexes(db, logger); err != nil {
			logger.Warn("index setup incomplete", zap.Error(err))
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx, nil) }
		return repository.NewMongoStore(db), ping, nil
	}
}
