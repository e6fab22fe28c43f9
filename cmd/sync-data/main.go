package main

import (
	"flag"
	"log"

	"animeatlas/internal/artifacts"
	"animeatlas/pkg/utils"
)

func main() {
	utils.LoadDotEnv()
	cfg := utils.LoadBuildConfig()

	var (
		src = flag.String("src", cfg.DataDir, "artifact directory")
		dst = flag.String("dst", cfg.PublicDataDir, "front end public data directory")
	)
	flag.Parse()

	if err := artifacts.Sync(*src, *dst); err != nil {
		log.Fatalf("sync failed: %v", err)
	}
	log.Printf("synced %s -> %s", *src, *dst)
}
