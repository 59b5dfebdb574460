package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"ledger_reporter/internal/auth"
	"ledger_reporter/internal/client"
	"ledger_reporter/internal/config"
	"ledger_reporter/internal/infrastructure/requestcache"
	"ledger_reporter/internal/pkg/logger"
	"ledger_reporter/internal/pkg/utils"
	"ledger_reporter/internal/service"
)

func main() {
	// Bootstrap logging with logrus until the configured zap logger is up.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: reporter <since-date>")
		fmt.Fprintln(os.Stderr, "Reports account activity strictly newer than <since-date> (YYYY-MM-DD or RFC3339).")
		os.Exit(1)
	}
	since, err := parseSince(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid since date %q: %v", os.Args[1], err)
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
	ledgerService := service.NewLedgerService(coinbaseClient, cfg, zapLogger)

	report, err := ledgerService.BuildLedger(context.Background(), since)
	if err != nil {
		zapLogger.Fatal("Failed to build ledger", zap.Error(err))
	}

	if err := renderReport(os.Stdout, report); err != nil {
		zapLogger.Fatal("Failed to render report", zap.Error(err))
	}
}

func parseSince(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
