package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(104857600), cfg.Server.UploadMaxBytes)
	assert.Equal(t, "whisper", cfg.Engines.TranscriptionProvider)
	assert.Equal(t, "ollama", cfg.Engines.GenerationProvider)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, "fr", cfg.Pipeline.LanguageHint)
	assert.Equal(t, time.Hour, cfg.Pipeline.StaleAfter)
	assert.Equal(t, "Généraliste", cfg.Pipeline.DefaultSpecialty)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("PIPELINE_WORKERS", "6")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "cache.internal:6379", cfg.GetRedisAddr())
	assert.Equal(t, 6, cfg.Pipeline.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Auth:     AuthConfig{AccessSecret: "secret"},
			Engines:  EnginesConfig{TranscriptionProvider: "whisper", WhisperURL: "http://w", GenerationProvider: "ollama", OllamaModel: "llama2"},
			Pipeline: PipelineConfig{Workers: 1, QueueBackend: "memory"},
			Letter:   LetterConfig{CacheBackend: "memory"},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"missing secret":         func(c *Config) { c.Auth.AccessSecret = "" },
		"unknown transcription":  func(c *Config) { c.Engines.TranscriptionProvider = "dragon" },
		"assemblyai without key": func(c *Config) { c.Engines.TranscriptionProvider = "assemblyai" },
		"openai without key":     func(c *Config) { c.Engines.GenerationProvider = "openai" },
		"unknown queue":          func(c *Config) { c.Pipeline.QueueBackend = "kafka" },
		"unknown cache":          func(c *Config) { c.Letter.CacheBackend = "memcached" },
		"no workers":             func(c *Config) { c.Pipeline.Workers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", Name: "scribe", SSLMode: "require"}}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=scribe sslmode=require", cfg.GetDatabaseDSN())
}
