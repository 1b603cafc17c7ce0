package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Keys     APIKeys
	Ai       AIConfig
	Workflow WorkflowConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type StoreConfig struct {
	Driver     string // "file", "postgres" or "memory"
	DataDir    string
	Connection string
}

type APIKeys struct {
	HuggingFace string
	OpenAI      string
}

type AIConfig struct {
	LLMProvider              string // "ollama", "huggingface", "openai"
	LLMModel                 string // e.g. "medllama2", "llama3"
	OllamaBaseURL            string
	OpenAIBaseURL            string
	RequestTimeout           time.Duration
	SummaryEnhancementEnable bool
}

type WorkflowConfig struct {
	LockBackend string // "local" or "redis"
	LockTTL     time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/care_triage.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Store: StoreConfig{
			Driver:     getEnv("CASE_STORE_DRIVER", "file"),
			DataDir:    getEnv("CASE_DATA_DIR", "data/cases"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAI:      getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:              getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:                 getEnv("LLM_MODEL", "medllama2"),
			OllamaBaseURL:            getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:            getEnv("OPENAI_BASE_URL", ""),
			RequestTimeout:           getEnvAsDuration("LLM_REQUEST_TIMEOUT", 60*time.Second),
			SummaryEnhancementEnable: getEnvAsBool("SUMMARY_ENHANCEMENT_ENABLED", true),
		},
		Workflow: WorkflowConfig{
			LockBackend: getEnv("CASE_LOCK_BACKEND", "local"),
			LockTTL:     getEnvAsDuration("CASE_LOCK_TTL", 5*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
