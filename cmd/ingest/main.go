package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animeatlas/internal/anilist"
	"animeatlas/internal/ingest"
	"animeatlas/internal/queue"
	"animeatlas/pkg/database"
	"animeatlas/pkg/utils"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on success, 1 on a fatal error and
// 2 when another runner holds the lease.
func run() int {
	utils.LoadDotEnv()
	if f := utils.InitLogging(); f != nil {
		defer f.Close()
	}
	cfg := utils.LoadIngestConfig()

	var (
		listPages = flag.Int("pages", cfg.ListPages, "list pages to plan per media type")
		limit     = flag.Int("limit", cfg.RunBatchLimit, "max batches completed this run")
		budget    = flag.Duration("budget", cfg.TimeBudget, "wall-clock budget for this run")
		maxPages  = flag.Int("credit-pages", cfg.MaxCreditPages, "max staff/character pages per media (0 = all)")
		dbPath    = flag.String("db", database.DefaultConfig().Path, "sqlite database path")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMigrated(ctx, database.Config{Path: *dbPath})
	if err != nil {
		log.Printf("db open failed: %v", err)
		return 1
	}
	defer db.Close()

	client := anilist.NewClient(anilist.Config{
		Endpoint:          cfg.APIURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.RequestMaxRetries,
		BaseDelay:         cfg.RequestBaseDelay,
	})
	ingester := ingest.NewIngester(db, client, cfg.PerPage)
	ingester.MaxPages = max(*maxPages, 0)

	lease := queue.NewLease(db, queue.DefaultLeaseName, queue.NewOwnerID(), cfg.LeaseTTL)
	runner := queue.NewRunner(queue.NewRepo(db), lease, ingester, queue.RunConfig{
		TimeBudget: *budget,
		BatchLimit: max(*limit, 1),
		MaxRetries: cfg.BatchMaxRetries,
		ListPages:  max(*listPages, 1),
	})

	start := time.Now()
	summary, err := runner.Run(ctx)
	if errors.Is(err, queue.ErrLeaseHeld) {
		if cur, curErr := lease.Current(ctx); curErr == nil && cur != nil {
			log.Printf("[ingest] %v: owner=%s expires=%s", err, cur.Owner, cur.ExpiresAt.Format(time.RFC3339))
		} else {
			log.Printf("[ingest] %v", err)
		}
		return 2
	}
	if err != nil {
		log.Printf("ingest run failed: %v", err)
		return 1
	}

	log.Printf("[ingest] stopped: %s after %s (failed=%d)", summary.Stop, time.Since(start).Round(time.Millisecond), summary.Failed)
	log.Printf("processed batches: %d", summary.Processed)
	return 0
}
