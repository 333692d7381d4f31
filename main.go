package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"omnicast/domain/repository"
	"omnicast/infrastructure/cache"
	"omnicast/infrastructure/clients/simulated"
	"omnicast/infrastructure/configuration"
	"omnicast/infrastructure/filestore"
	"omnicast/infrastructure/logger"
	"omnicast/infrastructure/persistence"
	"omnicast/infrastructure/pubsub"
	"omnicast/infrastructure/realtime"
	"omnicast/infrastructure/servicebus"
	"omnicast/infrastructure/worker"
	httpHandler "omnicast/interfaces/http"
	"omnicast/server"
	"omnicast/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	for _, f := range []string{"config.env", ".env"} {
		if _, err := os.Stat(f); err == nil {
			logger.GetLogger().WithField("file", f).Info("Detected env file in working directory")
		}
	}

	app := configuration.C.App

	store, closeStore, err := InitiateStorage(ctx, configuration.C.Storage.Driver)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("driver", configuration.C.Storage.Driver).Error("Storage initialization failed")
		os.Exit(1)
	}
	defer closeStore()

	if configuration.C.Storage.Seed {
		if err := persistence.SeedDemoData(ctx, store); err != nil {
			logger.GetLogger().WithField("error", err).Error("Seeding demo data failed")
		}
	}

	videos, err := filestore.NewVideoStore(configuration.C.Upload.Dir, configuration.C.Upload.MaxFileSize)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Upload directory unavailable")
		os.Exit(1)
	}

	progressHub := realtime.NewHub()
	observers, closeObservers := InitiateObservers(ctx)
	observers = append([]repository.IDeliveryObserver{progressHub}, observers...)

	runner := worker.NewRunner(context.Background())
	uploader := simulated.NewUploader(simulated.Config{
		UploadTick:  configuration.C.Simulator.UploadTick(),
		ProcessTick: configuration.C.Simulator.ProcessTick(),
	})
	fanOut := usecase.NewFanOut(store, uploader, runner, observers...)

	userUsecase := usecase.NewUserUsecase(store)
	platformUsecase := usecase.NewPlatformUsecase(store, simulated.NewCredentialIssuer())
	uploadUsecase := usecase.NewUploadUsecase(store, videos, fanOut)

	router := server.InitiateRouter(app, server.Handlers{
		User:     httpHandler.NewUserHandler(userUsecase),
		Platform: httpHandler.NewPlatformHandler(platformUsecase),
		Upload:   httpHandler.NewUploadHandler(uploadUsecase, videos.MaxSize()),
		Health:   httpHandler.NewHealthHandler(configuration.C.Storage.Driver),
		Progress: progressHub,
	})

	logger.GetLogger().WithFields(map[string]interface{}{
		"port":      app.Port,
		"storage":   configuration.C.Storage.Driver,
		"observers": len(observers),
	}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("HTTP server shutdown incomplete")
		}
	}
	// Running deliveries are marked failed before the stores go away.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Deliveries still running at shutdown")
	}
	closeObservers(shutdownCtx)

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateStorage opens the record store selected by driver and returns a
// func that releases it.
func InitiateStorage(ctx context.Context, driver string) (repository.IStorage, func(), error) {
	switch driver {
	case "", "memory":
		logger.GetLogger().Info("Using in-memory storage")
		return persistence.NewMemStorage(), func() {}, nil
	case "postgres", "postgresql":
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if err := persistence.EnsureOmniCastSchema(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.GetLogger().Info("Using PostgreSQL storage")
		return persistence.NewPostgresStorage(db), func() { _ = db.Close() }, nil
	case "mysql":
		db, err := persistence.NewGormDB()
		if err != nil {
			return nil, nil, err
		}
		if err := persistence.EnsureGormSchema(db); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.GetLogger().Info("Using MySQL storage")
		return persistence.NewGormStorage(db), func() { _ = sqlDB.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// InitiateObservers connects every optional delivery sink that is configured.
// A sink that cannot be reached is skipped with a warning.
func InitiateObservers(ctx context.Context) ([]repository.IDeliveryObserver, func(context.Context)) {
	var observers []repository.IDeliveryObserver
	var closers []func(context.Context)

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without progress snapshots")
	} else {
		observers = append(observers, cache.NewProgressPublisher(redisClient, cache.DefaultSnapshotTTL))
		closers = append(closers, func(context.Context) { _ = redisClient.Close() })
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without delivery events")
	} else if publisher, err := pubsub.NewEventPublisher(ctx, pubSubClient, configuration.C.Pubsub.Topic); err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub topic not available - continuing without delivery events")
		_ = pubSubClient.Close()
	} else {
		observers = append(observers, publisher)
		closers = append(closers, func(context.Context) { _ = pubSubClient.Close() })
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
	} else if sender, err := servicebus.NewEventSender(azServiceBusClient, configuration.C.ServiceBus.Queue); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Service Bus sender not available")
		_ = azServiceBusClient.Close(ctx)
	} else {
		observers = append(observers, sender)
		closers = append(closers, func(ctx context.Context) {
			_ = sender.Close(ctx)
			_ = azServiceBusClient.Close(ctx)
		})
	}

	mongo := configuration.C.Database.Mongo
	mongoDb, err := persistence.NewMongoDb(mongo.Host, mongo.Port, mongo.User, mongo.Password, mongo.Name)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without delivery audit")
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without delivery audit")
		_ = mongoDb.Disconnect(ctx)
	} else {
		observers = append(observers, persistence.NewMongoDeliveryAudit(mongoDb, mongo.Name))
		closers = append(closers, func(ctx context.Context) { _ = mongoDb.Disconnect(ctx) })
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	return observers, func(ctx context.Context) {
		for _, c := range closers {
			c(ctx)
		}
	}
}
