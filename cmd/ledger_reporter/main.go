package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"ledger_reporter/internal/auth"
	"ledger_reporter/internal/client"
	"ledger_reporter/internal/config"
	"ledger_reporter/internal/infrastructure/requestcache"
	"ledger_reporter/internal/infrastructure/restapi"
	"ledger_reporter/internal/pkg/logger"
	"ledger_reporter/internal/pkg/metrics"
	"ledger_reporter/internal/pkg/utils"
	"ledger_reporter/internal/service"
)

func main() {
	// Bootstrap logging with logrus until the configured zap logger is up.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.Init(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	// Initialize Prometheus metrics
	metrics.MustRegisterMetrics()

	credentialPath := utils.GetEnv("CREDENTIAL_PATH", cfg.Coinbase.CredentialFile)
	credential, err := auth.LoadCredential(credentialPath)
	if err != nil {
		zapLogger.Fatal("Failed to load credential", zap.String("path", credentialPath), zap.Error(err))
	}

	signer, err := auth.NewSigner(credential, cfg.Coinbase.Host)
	if err != nil {
		zapLogger.Fatal("Failed to initialize request signer", zap.Error(err))
	}

	cache := requestcache.NewDiskCache(cfg.Cache.Dir, zapLogger)
	coinbaseClient := client.NewCoinbaseClient(
		cfg.Coinbase.BaseURL,
		time.Duration(cfg.Coinbase.RequestTimeoutMillis)*time.Millisecond,
		cfg.Coinbase.RateLimit,
		cfg.Coinbase.BurstLimit,
		signer,
		cache,
		zapLogger,
	)
	zapLogger.Info("Coinbase client initialized")

	ledgerService := service.NewLedgerService(coinbaseClient, cfg, zapLogger)
	zapLogger.Info("LedgerService initialized")

	ledgerHandler := restapi.NewLedgerHandler(ledgerService, cfg, zapLogger)
	router := restapi.SetupRouter(ledgerHandler, cfg, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
