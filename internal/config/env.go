package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	GenModel     string
	VisionModel  string
	Port         string

	CollectionName string
	DataDir        string
	OutputDir      string
	ImageOutputDir string

	SemanticMaxTokens int
	PageBatchSize     int
	Zoom              float64
	SnippetLimit      int
	ReconstructTables bool
}

// LoadConfig loads the environment variables and returns config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-1"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		VisionModel:  getEnv("VISION_MODEL", "gemini-1.5-flash"),
		Port:         getEnv("PORT", "8080"),

		CollectionName: getEnv("COLLECTION_NAME", "efsora_documents"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		OutputDir:      getEnv("OUTPUT_DIR", ""),
		ImageOutputDir: getEnv("IMAGE_OUTPUT_DIR", ""),

		SemanticMaxTokens: getEnvInt("SEMANTIC_MAX_TOKENS", 512),
		PageBatchSize:     getEnvInt("PAGE_BATCH_SIZE", 5),
		Zoom:              getEnvFloat("PAGE_ZOOM", 3),
		SnippetLimit:      getEnvInt("PAGE_TEXT_SNIPPET_LIMIT", 300),
		ReconstructTables: getEnvBool("RECONSTRUCT_TABLES", true),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a number, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
