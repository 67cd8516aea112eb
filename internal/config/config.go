package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Assistant AssistantConfig
	Payment   PaymentConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SocketLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider string // "ollama" or "huggingface"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string
	LLMTimeout  time.Duration
	Temperature float64
}

type AssistantConfig struct {
	CorpusDir      string
	TriggersFile   string
	TrialDuration  time.Duration
	PaidDuration   time.Duration
	TickInterval   time.Duration
	AutoSubmit     bool
	VoiceMode      bool
	HistoryBackend string // "memory", "redis" or "postgres"
	HistoryTTL     time.Duration
	SurfaceTTL     time.Duration
	SubmitTimeout  time.Duration
}

type PaymentConfig struct {
	Required     bool
	ServerKey    string
	IsProduction bool
	Price        int64
	ItemName     string
	FinishURL    string
	OrderTTL     time.Duration
}

type AuthConfig struct {
	JwtSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/socket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventTopic:         getEnv("SURFACE_EVENT_TOPIC", "ASSISTANT_SURFACE_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:   getEnv("HUGGINGFACE_API_KEY", ""),
			LLMTimeout:  getEnvAsSeconds("LLM_TIMEOUT_SECONDS", 120),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.4),
		},
		Assistant: AssistantConfig{
			CorpusDir:      getEnv("ASSISTANT_CORPUS_DIR", "data/corpus"),
			TriggersFile:   getEnv("ASSISTANT_TRIGGERS_FILE", "data/triggers.json"),
			TrialDuration:  getEnvAsSeconds("ASSISTANT_TRIAL_SECONDS", 300),
			PaidDuration:   getEnvAsSeconds("ASSISTANT_PAID_SECONDS", 3600),
			TickInterval:   getEnvAsSeconds("ASSISTANT_TICK_SECONDS", 1),
			AutoSubmit:     getEnvAsBool("ASSISTANT_VOICE_AUTO_SUBMIT", false),
			VoiceMode:      getEnvAsBool("ASSISTANT_VOICE_MODE", true),
			HistoryBackend: getEnv("ASSISTANT_HISTORY_BACKEND", "memory"),
			HistoryTTL:     getEnvAsSeconds("ASSISTANT_HISTORY_TTL_SECONDS", 7*24*3600),
			SurfaceTTL:     getEnvAsSeconds("ASSISTANT_SURFACE_TTL_SECONDS", 30*60),
			SubmitTimeout:  getEnvAsSeconds("ASSISTANT_SUBMIT_TIMEOUT_SECONDS", 120),
		},
		Payment: PaymentConfig{
			Required:     getEnvAsBool("PAYMENT_REQUIRED", true),
			ServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			IsProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			Price:        int64(getEnvAsInt("ASSISTANT_SESSION_PRICE", 25000)),
			ItemName:     getEnv("ASSISTANT_SESSION_ITEM_NAME", "HANA Assistant Session (1 hour)"),
			FinishURL:    getEnv("PAYMENT_FINISH_URL", "http://localhost:5173/assistant?payment=success"),
			OrderTTL:     getEnvAsSeconds("PAYMENT_ORDER_TTL_SECONDS", 24*3600),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
	}
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
