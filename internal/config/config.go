package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Backend     BackendConfig
	Retrieval   RetrievalConfig
	Preferences PreferencesConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	ViewerLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	APISecret          string // empty disables bearer auth on the local API
	ViewerTimeout      time.Duration
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RetrievalConfig struct {
	MaxSnippets     int
	MaxInsightTexts int
	Persona         string
	Task            string
	DocIDSuffix     string
}

type PreferencesConfig struct {
	Backend  string // "bolt" or "redis"
	BoltPath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5174"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ViewerLogFilePath:  getEnv("VIEWER_LOG_FILE_PATH", "logs/viewer.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			APISecret:          getEnv("LOCAL_API_SECRET", ""),
			ViewerTimeout:      getEnvAsDuration("VIEWER_TIMEOUT", 15*time.Second),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://127.0.0.1:8000"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 120*time.Second),
		},
		Retrieval: RetrievalConfig{
			MaxSnippets:     getEnvAsInt("MAX_SNIPPETS", 5),
			MaxInsightTexts: getEnvAsInt("MAX_INSIGHT_TEXTS", 6),
			Persona:         getEnv("DEFAULT_PERSONA", "General researcher"),
			Task:            getEnv("DEFAULT_TASK", "Understand and compare the selected concept across documents"),
			DocIDSuffix:     getEnv("DOC_ID_SUFFIX", ".pdf"),
		},
		Preferences: PreferencesConfig{
			Backend:  getEnv("PREFERENCES_BACKEND", "bolt"),
			BoltPath: getEnv("PREFERENCES_PATH", "docuwise.db"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
