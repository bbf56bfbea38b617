// catalog-worker runs the pull-side task consumers for workbook imports and
// version promotions. Deploy it alongside the API server when push delivery
// is not available; both sides share the same job bookkeeping.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... REDIS_ADDRESS=... go run ./cmd/catalog-worker
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	"bitbucket.org/mmdatafocus/catalog_backend/importer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	logger := config.GetLogger()

	if err := importer.RunImportWorker(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start import worker: %v\n", err)
		os.Exit(1)
	}
	if err := importer.RunPromotionWorker(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start promotion worker: %v\n", err)
		os.Exit(1)
	}
	logger.Info("catalog workers started")

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping workers")
}
