package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/config"
	"jamjob-backend/internal/database"
	"jamjob-backend/internal/handlers"
	"jamjob-backend/internal/logger"
	"jamjob-backend/internal/notify"
	"jamjob-backend/internal/payment"
	"jamjob-backend/internal/repository"
	"jamjob-backend/internal/services"
	"jamjob-backend/internal/storage"
)

const checkoutStateTTL = 24 * time.Hour

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.LogLevel, os.Stdout)

	// Connect to MongoDB
	store, err := database.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("failed to disconnect from MongoDB")
		}
	}()

	userRepo := repository.NewUserRepo(store)
	jobRepo := repository.NewJobRepo(store)
	paymentRepo := repository.NewPaymentRepo(store)
	ensureIndexes(ctx, log, userRepo, jobRepo, paymentRepo)

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	if c, ok := blobs.(io.Closer); ok {
		defer c.Close()
	}

	var notifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewResendNotifier(cfg.ResendAPIKey, cfg.FromEmail, log)
	} else {
		log.Warn("RESEND_API_KEY not set, emails will only be logged")
		notifier = notify.NewLogNotifier(log)
	}

	var gateway payment.Gateway
	if cfg.PayPalEnabled() {
		pp, err := payment.NewPayPalGateway(cfg.PayPalClientID, cfg.PayPalClientSecret, cfg.PayPalMode)
		if err != nil {
			return fmt.Errorf("create PayPal client: %w", err)
		}
		gateway = pp
	} else {
		log.Warn("PAYPAL_CLIENT_ID not set, checkout endpoints are disabled")
	}

	svc := handlers.Services{
		Accounts: services.NewAccountService(userRepo, log),
		Jobs:     services.NewJobService(userRepo, jobRepo, notifier, log, cfg.FreeJobQuota),
		Payments: services.NewPaymentService(gateway, payment.NewStateSigner(cfg.StateSecret, checkoutStateTTL),
			userRepo, paymentRepo, notifier, log, services.PaymentConfig{
				BaseURL:           cfg.BaseURL,
				CreditsPerPayment: cfg.PaidPostsPerPayment,
			}),
		Logos: services.NewLogoService(blobs),
	}
	router := handlers.NewRouter(svc, store, log, handlers.RouterConfig{
		FreeJobQuota:   cfg.FreeJobQuota,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "blob_backend": cfg.BlobBackend}).Info("jamjob backend starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch strings.ToLower(cfg.BlobBackend) {
	case config.BlobBackendS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	case config.BlobBackendGCS:
		return storage.NewGCSStore(ctx, cfg.GCSBucket)
	default:
		return storage.NewDiskStore(cfg.UploadDir)
	}
}
