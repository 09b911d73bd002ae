package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	Env    string
	Port   string
	DBName string

	MongoURI string

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	GeminiAPIKey string
	GeminiModel  string

	FalKey          string
	FalQueueURL     string
	FalPollInterval time.Duration

	BlobBackend    string
	AWSRegion      string
	AWSBucketName  string
	S3PublicRead   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	SendGridAPIKey string
	SendGridFrom   string

	StageTimeout        time.Duration
	BatchTimeout        time.Duration
	PipelineConcurrency int
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	Env = getEnv("ENV", "prod")
	Port = getEnv("PORT", "8080")
	DBName = getEnv("DB_NAME", "fitly")
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017/")

	JWTSecret = os.Getenv("JWT_SECRET")
	GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	GoogleRedirectURL = getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = getEnv("GEMINI_MODEL", "gemini-1.5-flash")

	FalKey = os.Getenv("FAL_KEY")
	if FalKey == "" {
		FalKey = os.Getenv("FAL_AI_API_KEY")
	}
	FalQueueURL = getEnv("FAL_QUEUE_URL", "https://queue.fal.run")
	FalPollInterval = getDuration("FAL_POLL_INTERVAL", time.Second)

	BlobBackend = getEnv("BLOB_BACKEND", "s3")
	AWSRegion = getEnv("AWS_REGION", "ap-south-1")
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")
	S3PublicRead = getBool("S3_PUBLIC_READ", true)
	MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	MinioBucket = getEnv("MINIO_BUCKET", "fitly")
	MinioUseSSL = getBool("MINIO_USE_SSL", false)

	SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	SendGridFrom = getEnv("SENDGRID_FROM", "no-reply@tryonfusion.com")

	StageTimeout = getDuration("STAGE_TIMEOUT", 5*time.Minute)
	BatchTimeout = getDuration("BATCH_TIMEOUT", 30*time.Minute)
	PipelineConcurrency = getInt("PIPELINE_CONCURRENCY", 1)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
