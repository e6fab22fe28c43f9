package main

import (
	"flag"
	"log"

	"animeatlas/internal/artifacts"
	"animeatlas/pkg/utils"
)

func main() {
	utils.LoadDotEnv()
	dir := flag.String("dir", utils.LoadBuildConfig().DataDir, "artifact directory to verify")
	flag.Parse()

	if err := artifacts.Check(*dir); err != nil {
		log.Fatalf("sanity failed: %v", err)
	}
	log.Println("sanity ok")
}
