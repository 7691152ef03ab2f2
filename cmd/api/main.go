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

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/lumenmart/api/internal/handlers"
	"github.com/lumenmart/api/internal/platform/auth"
	"github.com/lumenmart/api/internal/platform/config"
	pfirestore "github.com/lumenmart/api/internal/platform/firestore"
	"github.com/lumenmart/api/internal/platform/jobs"
	"github.com/lumenmart/api/internal/platform/observability"
	firestoreRepo "github.com/lumenmart/api/internal/repositories/firestore"
	"github.com/lumenmart/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	clock := func() time.Time { return time.Now().UTC() }
	idGen := func() string { return ulid.Make().String() }
	eventLogger := observability.EventLogger(logger)

	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	userRepo, err := firestoreRepo.NewUserRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise user repository", zap.Error(err))
	}
	addressRepo, err := firestoreRepo.NewAddressRepository(firestoreProvider, func() string { return "addr_" + idGen() }, clock)
	if err != nil {
		logger.Fatal("failed to initialise address repository", zap.Error(err))
	}
	counterRepo, err := firestoreRepo.NewCounterRepository(firestoreProvider, clock)
	if err != nil {
		logger.Fatal("failed to initialise counter repository", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	if projectID := cfg.PubSub.ProjectID; projectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, projectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		topic := pubsubClient.Topic(cfg.PubSub.OrderEventsTopic)
		defer topic.Stop()
		publisher, err = jobs.NewPubSubOrderEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	} else {
		logger.Warn("pubsub project not configured; order events disabled")
	}

	provisioner, err := services.NewGuestProvisioner(services.GuestProvisionerDeps{
		Users:       userRepo,
		Clock:       clock,
		IDGenerator: idGen,
		Logger:      eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise guest provisioner", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:      orderRepo,
		Users:       userRepo,
		Addresses:   addressRepo,
		Counters:    counterRepo,
		Provisioner: provisioner,
		CartPolicy:  checkoutPolicy(cfg.Checkout.Cart),
		GuestPolicy: checkoutPolicy(cfg.Checkout.Guest),
		Clock:       clock,
		IDGenerator: idGen,
		Events:      publisher,
		Logger:      eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	addressService, err := services.NewAddressService(services.AddressServiceDeps{
		Addresses: addressRepo,
		Logger:    eventLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise address service", zap.Error(err))
	}

	var invoiceService services.InvoiceService
	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Warn("storage client unavailable; invoice downloads disabled", zap.Error(err))
	} else {
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		invoiceService, err = services.NewInvoiceService(services.InvoiceServiceDeps{
			Orders: orderRepo,
			Bucket: storageClient.Bucket(cfg.Invoices.Bucket),
		})
		if err != nil {
			logger.Fatal("failed to initialise invoice service", zap.Error(err))
		}
	}

	routerOpts := []handlers.Option{
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithOrderHandlers(handlers.NewOrderHandlers(orderService, invoiceService)),
		handlers.WithAddressHandlers(handlers.NewAddressHandlers(addressService)),
	}

	if cfg.Firebase.ProjectID != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
		if err != nil {
			logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
		}
		routerOpts = append(routerOpts, handlers.WithAuthenticator(auth.NewAuthenticator(verifier)))
	} else {
		logger.Warn("firebase project not configured; staff routes are unguarded")
	}

	router := handlers.NewRouter(routerOpts...)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			_ = server.Close()
		}
	}
}

func checkoutPolicy(cfg config.PolicyConfig) services.CheckoutPolicy {
	return services.CheckoutPolicy{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		TaxRate:               cfg.TaxRate,
	}
}
