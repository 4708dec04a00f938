package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Engines  EnginesConfig
	Pipeline PipelineConfig
	Letter   LetterConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	UploadMaxBytes  int64    `envconfig:"UPLOAD_MAX_BYTES" default:"104857600"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"medical_scribe"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"medical-scribe"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	Issuer       string        `envconfig:"JWT_ISSUER" default:"medical-scribe"`
}

// EnginesConfig selects and configures the transcription, generation and NER backends
type EnginesConfig struct {
	TranscriptionProvider string        `envconfig:"TRANSCRIPTION_PROVIDER" default:"whisper"`
	WhisperURL            string        `envconfig:"WHISPER_URL" default:"http://localhost:8178"`
	AssemblyAIKey         string        `envconfig:"ASSEMBLYAI_API_KEY"`
	GenerationProvider    string        `envconfig:"GENERATION_PROVIDER" default:"ollama"`
	OllamaURL             string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaModel           string        `envconfig:"OLLAMA_MODEL" default:"llama2:latest"`
	OpenAIKey             string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel           string        `envconfig:"OPENAI_MODEL" default:"llama-3.3-70b-versatile"`
	NERURL                string        `envconfig:"NER_URL"`
	RequestTimeout        time.Duration `envconfig:"ENGINE_REQUEST_TIMEOUT" default:"5m"`
	WarmupTimeout         time.Duration `envconfig:"ENGINE_WARMUP_TIMEOUT" default:"30s"`
}

// PipelineConfig holds worker pool and orchestration settings
type PipelineConfig struct {
	Workers          int           `envconfig:"PIPELINE_WORKERS" default:"2"`
	QueueBackend     string        `envconfig:"QUEUE_BACKEND" default:"memory"`
	QueueKey         string        `envconfig:"QUEUE_KEY" default:"medical-scribe:pipeline"`
	QueueBuffer      int           `envconfig:"QUEUE_BUFFER" default:"64"`
	LanguageHint     string        `envconfig:"PIPELINE_LANGUAGE" default:"fr"`
	JobTimeout       time.Duration `envconfig:"PIPELINE_JOB_TIMEOUT" default:"15m"`
	StaleAfter       time.Duration `envconfig:"PIPELINE_STALE_AFTER" default:"1h"`
	ReapInterval     time.Duration `envconfig:"PIPELINE_REAP_INTERVAL" default:"5m"`
	DefaultSpecialty string        `envconfig:"DEFAULT_SPECIALTY" default:"Généraliste"`
	SpecialtyFile    string        `envconfig:"SPECIALTY_FILE"`
}

// LetterConfig holds referral letter settings
type LetterConfig struct {
	CacheBackend string        `envconfig:"LETTER_CACHE_BACKEND" default:"memory"`
	CacheTTL     time.Duration `envconfig:"LETTER_CACHE_TTL" default:"1h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.Redis,
		&config.Storage,
		&config.Auth,
		&config.Engines,
		&config.Pipeline,
		&config.Letter,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}

	switch c.Engines.TranscriptionProvider {
	case "whisper":
		if c.Engines.WhisperURL == "" {
			return fmt.Errorf("WHISPER_URL is required for the whisper provider")
		}
	case "assemblyai":
		if c.Engines.AssemblyAIKey == "" {
			return fmt.Errorf("ASSEMBLYAI_API_KEY is required for the assemblyai provider")
		}
	default:
		return fmt.Errorf("unknown TRANSCRIPTION_PROVIDER %q", c.Engines.TranscriptionProvider)
	}

	switch c.Engines.GenerationProvider {
	case "ollama":
		if c.Engines.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_MODEL is required for the ollama provider")
		}
	case "openai":
		if c.Engines.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown GENERATION_PROVIDER %q", c.Engines.GenerationProvider)
	}

	switch c.Pipeline.QueueBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.Pipeline.QueueBackend)
	}
	switch c.Letter.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown LETTER_CACHE_BACKEND %q", c.Letter.CacheBackend)
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Pipeline.QueueBackend == "redis" || c.Letter.CacheBackend == "redis"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
