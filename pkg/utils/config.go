package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads a .env file into the environment if one exists.
// Values already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

type IngestConfig struct {
	APIURL            string
	TimeBudget        time.Duration
	RunBatchLimit     int
	BatchMaxRetries   int
	ListPages         int
	PerPage           int
	RequestsPerSecond float64
	RequestMaxRetries int
	RequestBaseDelay  time.Duration
	LeaseTTL          time.Duration

	// MaxCreditPages caps staff and character pages per media; 0 means
	// walk every page.
	MaxCreditPages int
}

func LoadIngestConfig() IngestConfig {
	return IngestConfig{
		APIURL:            envString("ATLAS_API_URL", "https://graphql.anilist.co"),
		TimeBudget:        time.Duration(envFloat("TIME_BUDGET_MINUTES", 30) * float64(time.Minute)),
		RunBatchLimit:     atLeastOne(envInt("RUN_BATCH_LIMIT", 8)),
		BatchMaxRetries:   atLeastOne(envInt("BATCH_MAX_RETRIES", 5)),
		ListPages:         atLeastOne(envInt("LIST_PAGES", 50)),
		PerPage:           atLeastOne(envInt("PER_PAGE", 50)),
		RequestsPerSecond: envFloat("REQUESTS_PER_SECOND", 0.35),
		RequestMaxRetries: envInt("REQUEST_MAX_RETRIES", 5),
		RequestBaseDelay:  time.Duration(envInt("REQUEST_BASE_DELAY_MS", 800)) * time.Millisecond,
		LeaseTTL:          time.Duration(atLeastOne(envInt("LEASE_TTL_SECONDS", 120))) * time.Second,
		MaxCreditPages:    max(envInt("MAX_CREDIT_PAGES", 0), 0),
	}
}

type BuildConfig struct {
	DataDir             string
	PublicDataDir       string
	ProjectionThreshold int
	ChunkSize           int
	ClusterCount        int
}

func LoadBuildConfig() BuildConfig {
	return BuildConfig{
		DataDir:             envString("ATLAS_DATA_DIR", "data"),
		PublicDataDir:       envString("ATLAS_PUBLIC_DATA_DIR", "app/public/data"),
		ProjectionThreshold: atLeastOne(envInt("PROJECTION_THRESHOLD", 200)),
		ChunkSize:           atLeastOne(envInt("CHUNK_SIZE", 500)),
		ClusterCount:        atLeastOne(envInt("CLUSTER_COUNT", 30)),
	}
}

type ServerConfig struct {
	Addr         string
	DataDir      string
	ProgressPoll time.Duration
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         envString("ATLAS_HTTP_ADDR", ":8080"),
		DataDir:      envString("ATLAS_DATA_DIR", "data"),
		ProgressPoll: time.Duration(atLeastOne(envInt("PROGRESS_POLL_SECONDS", 5))) * time.Second,
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
