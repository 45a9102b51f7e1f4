package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Agent    AgentConfig
	Queue    QueueConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider   string // "ollama" or "gemini"
	EmbeddingModel      string
	EmbeddingDimensions int
	OllamaBaseURL       string
	GoogleGeminiKey     string
	LLMProvider         string // "ollama", "openai", "dashscope"
	LLMModel            string
	LLMBaseURL          string
	LLMAPIKey           string
	ExtractorBaseURL    string
}

type AgentConfig struct {
	MaxIterations  int
	TokenRatio     float64
	LastKeep       int
	ContextWindow  int
	RetrievalLimit int
	ScoreThreshold float64
}

type QueueConfig struct {
	AnalysisTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GoogleGeminiKey:     getEnv("GOOGLE_GEMINI_API_KEY", ""),
			LLMProvider:         getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:            getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:           getEnv("LLM_API_KEY", ""),
			ExtractorBaseURL:    getEnv("EXTRACTOR_BASE_URL", "http://localhost:8100"),
		},
		Agent: AgentConfig{
			MaxIterations:  getEnvAsInt("AGENT_MAX_ITERATIONS", 5),
			TokenRatio:     getEnvAsFloat("AGENT_TOKEN_RATIO", 0.4),
			LastKeep:       getEnvAsInt("AGENT_LAST_KEEP", 10),
			ContextWindow:  getEnvAsInt("AGENT_CONTEXT_WINDOW", 32768),
			RetrievalLimit: getEnvAsInt("AGENT_RETRIEVAL_LIMIT", 5),
			ScoreThreshold: getEnvAsFloat("AGENT_SCORE_THRESHOLD", 0),
		},
		Queue: QueueConfig{
			AnalysisTopic: getEnv("ANALYZE_PAPER_TOPIC_NAME", "ANALYZE_PAPER"),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
