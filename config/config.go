package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Everything is env-driven with sensible defaults for local development.
type Config struct {
	ServerAddr string

	// Logging.
	LogLevel string
	LogFile  string // empty disables the rotating file sink

	// External agents.
	FFmpegPath  string
	YtdlpPath   string
	CookiesFile string // Cookie jar handed to the indexing/download agent.

	// HLS packaging.
	AudioBitrate   string // e.g., "320k"
	HLSSegmentTime string // seconds per segment
	HLSDir         string // Root directory for packaged streams.
	AudioDir       string // Holding area for fetched audio files.
	StaticDir      string // Root directory for static file serving.

	// Pipeline behavior.
	CleanupDelay   time.Duration // How long a packaged stream survives before reclamation.
	QuerySuffixLen int           // Client-side suffix stripped before metadata lookup.

	// Strategy selection.
	MetadataProvider string // "remote" or "ytmusic"
	SourceLocator    string // "agent", "api" or "ytsearch"
	FetchMode        string // "agent", "chain" or "direct"

	// Metadata-lookup microservice.
	MetadataAPIURL string

	// YouTube Data API.
	YoutubeAPIKey string
	YoutubeAPIURL string

	// Fallback link-resolver providers, in chain order.
	RapidAPIKey  string
	YTMP36URL    string
	InvidiousURL string
	PipedURL     string
	ConvertURL   string

	// JWT.
	JWTSecret   string
	TokenExpiry time.Duration

	// MySQL.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioEnabled   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	staticBase := getEnv("STATIC_DIR", "static")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		YtdlpPath:   getEnv("YTDLP_PATH", "yt-dlp"),
		CookiesFile: getEnv("COOKIES_FILE", filepath.Join("config", "cookies.txt")),

		AudioBitrate:   getEnv("AUDIO_BITRATE", "320k"),
		HLSSegmentTime: getEnv("HLS_SEGMENT_TIME", "10"),
		HLSDir:         filepath.Join(staticBase, "hls"),
		AudioDir:       getEnv("AUDIO_DIR", filepath.Join("tmp", "audio")),
		StaticDir:      staticBase,

		CleanupDelay:   getEnvDuration("CLEANUP_DELAY", 6*time.Minute),
		QuerySuffixLen: getEnvInt("QUERY_SUFFIX_LEN", 4),

		MetadataProvider: getEnv("METADATA_PROVIDER", "remote"),
		SourceLocator:    getEnv("SOURCE_LOCATOR", "api"),
		FetchMode:        getEnv("FETCH_MODE", "chain"),

		MetadataAPIURL: getEnv("METADATA_API_URL", "http://127.0.0.1:8001"),

		YoutubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		YoutubeAPIURL: getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3/search"),

		RapidAPIKey:  os.Getenv("RAPIDAPI_KEY"),
		YTMP36URL:    getEnv("YTMP36_URL", "https://youtube-mp36.p.rapidapi.com/dl"),
		InvidiousURL: getEnv("INVIDIOUS_URL", "https://invidious.io.lol/api/v1/videos"),
		PipedURL:     getEnv("PIPED_URL", "https://pipedapi.kavin.rocks/streams"),
		ConvertURL:   getEnv("CONVERT_URL", "https://api.vevioz.com/api/button/mp3"),

		JWTSecret:   getEnv("JWT_SECRET", "freetunes-dev-secret"),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRY", 72*time.Hour),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "freetunes"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "freetunes"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
	}
}
