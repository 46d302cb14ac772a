package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/encore/internal/config"
	dbpkg "github.com/BruksfildServices01/encore/internal/db"
	"github.com/BruksfildServices01/encore/internal/legacy"
	"github.com/BruksfildServices01/encore/internal/logging"
	"github.com/BruksfildServices01/encore/internal/timezone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	concertsFile := flag.String("concerts", cfg.Legacy.ExtraConcertsFile, "extra concerts JSON file")
	appsFile := flag.String("applications", cfg.Legacy.ApplicationsFile, "concert applications JSON file")
	flag.Parse()

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	timezone.SetDefault(cfg.Timezone)

	concerts, err := legacy.LoadExtraConcerts(*concertsFile)
	if err != nil {
		logger.Fatal("failed to read extra concerts", zap.String("file", *concertsFile), zap.Error(err))
	}
	apps, err := legacy.LoadApplications(*appsFile)
	if err != nil {
		logger.Fatal("failed to read applications", zap.String("file", *appsFile), zap.Error(err))
	}

	db, err := dbpkg.NewDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := legacy.NewImporter(db, logger).Import(ctx, concerts, apps)
	if err != nil {
		logger.Fatal("legacy import failed", zap.Error(err))
	}

	logger.Info("legacy import finished",
		zap.Int("concerts", res.Concerts),
		zap.Int("applications", res.Applications),
		zap.Int("skipped", res.Skipped),
	)
}
