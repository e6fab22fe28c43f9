package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"animeatlas/internal/catalog"
	"animeatlas/internal/progress"
	"animeatlas/internal/queue"
	"animeatlas/pkg/database"
	"animeatlas/pkg/utils"
)

func main() {
	utils.LoadDotEnv()
	if f := utils.InitLogging(); f != nil {
		defer f.Close()
	}
	cfg := utils.LoadServerConfig()

	var (
		addr    = flag.String("addr", cfg.Addr, "listen address")
		dataDir = flag.String("data", cfg.DataDir, "artifact directory to serve under /data")
		dbPath  = flag.String("db", database.DefaultConfig().Path, "sqlite database path")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.MustOpen(ctx, database.Config{Path: *dbPath})
	defer db.Close()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	batches := queue.NewRepo(db)
	hub := progress.NewHub()
	watcher := progress.NewWatcher(batches, hub, cfg.ProgressPoll)
	router.GET("/ws", progress.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": *dbPath})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": hub.Count(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": hub.Count(),
		})
	})

	catalog.NewHandler(catalog.NewRepo(db), batches).RegisterRoutes(router.Group("/api"))
	router.Static("/data", *dataDir)

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("atlas server listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
	log.Println("server stopped")
}
