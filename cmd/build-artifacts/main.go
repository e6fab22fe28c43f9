package main

import (
	"context"
	"flag"
	"log"
	"time"

	"animeatlas/internal/artifacts"
	"animeatlas/pkg/database"
	"animeatlas/pkg/utils"
)

func main() {
	utils.LoadDotEnv()
	if f := utils.InitLogging(); f != nil {
		defer f.Close()
	}
	cfg := utils.LoadBuildConfig()

	var (
		outDir = flag.String("out", cfg.DataDir, "artifact output directory")
		dbPath = flag.String("db", database.DefaultConfig().Path, "sqlite database path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db := database.MustOpen(ctx, database.Config{Path: *dbPath})
	defer db.Close()

	builder := artifacts.NewBuilder(db, artifacts.Options{
		ProjectionThreshold: cfg.ProjectionThreshold,
		ChunkSize:           cfg.ChunkSize,
		ClusterCount:        cfg.ClusterCount,
	})
	res, err := builder.Build(ctx)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	if err := artifacts.Write(ctx, *outDir, res); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	log.Printf("[artifacts] built %d points into %s", len(res.Points.Points), *outDir)
}
