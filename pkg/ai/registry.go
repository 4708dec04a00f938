package ai

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/johnquangdev/medical-scribe/pkg/config"
)

// Registry hands out engine instances, building each one on first use.
// Concurrent first callers share a single initialisation; failures are not
// cached so the next call tries again.
type Registry struct {
	cfg    config.EnginesConfig
	logger *zap.Logger
	group  singleflight.Group

	mu          sync.RWMutex
	transcriber TranscriptionEngine
	generator   GenerationEngine
	tagger      NEREngine
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithTranscriber installs a ready transcription engine
func WithTranscriber(e TranscriptionEngine) RegistryOption {
	return func(r *Registry) { r.transcriber = e }
}

// WithGenerator installs a ready generation engine
func WithGenerator(e GenerationEngine) RegistryOption {
	return func(r *Registry) { r.generator = e }
}

// WithTagger installs a ready NER engine
func WithTagger(e NEREngine) RegistryOption {
	return func(r *Registry) { r.tagger = e }
}

// NewRegistry creates a registry for the configured providers
func NewRegistry(cfg config.EnginesConfig, logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{cfg: cfg, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Transcriber returns the transcription engine
func (r *Registry) Transcriber(ctx context.Context) (TranscriptionEngine, error) {
	r.mu.RLock()
	e := r.transcriber
	r.mu.RUnlock()
	if e != nil {
		return e, nil
	}

	v, err, _ := r.group.Do("transcriber", func() (interface{}, error) {
		e, err := r.buildTranscriber()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.transcriber = e
		r.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(TranscriptionEngine), nil
}

// Generator returns the generation engine. For Ollama the daemon is awaited
// and the model pulled if needed before the engine is handed out.
func (r *Registry) Generator(ctx context.Context) (GenerationEngine, error) {
	r.mu.RLock()
	e := r.generator
	r.mu.RUnlock()
	if e != nil {
		return e, nil
	}

	v, err, _ := r.group.Do("generator", func() (interface{}, error) {
		// the build is shared by every waiting caller, so it must outlive the first one
		buildCtx, cancel := r.warmupContext(ctx)
		defer cancel()
		e, err := r.buildGenerator(buildCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.generator = e
		r.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(GenerationEngine), nil
}

// Tagger returns the NER engine, or ErrEngineUnavailable when none is configured
func (r *Registry) Tagger(ctx context.Context) (NEREngine, error) {
	r.mu.RLock()
	e := r.tagger
	r.mu.RUnlock()
	if e != nil {
		return e, nil
	}
	if r.cfg.NERURL == "" {
		return nil, unavailable("ner", fmt.Errorf("NER_URL not configured"))
	}

	v, err, _ := r.group.Do("tagger", func() (interface{}, error) {
		e, err := NewHTTPNEREngine(r.cfg.NERURL, r.cfg.RequestTimeout)
		if err != nil {
			return nil, unavailable("ner", err)
		}
		r.mu.Lock()
		r.tagger = e
		r.mu.Unlock()
		return NEREngine(e), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(NEREngine), nil
}

func (r *Registry) buildTranscriber() (TranscriptionEngine, error) {
	switch r.cfg.TranscriptionProvider {
	case "whisper":
		e, err := NewWhisperEngine(r.cfg.WhisperURL, r.cfg.RequestTimeout)
		if err != nil {
			return nil, unavailable("whisper", err)
		}
		r.logger.Info("transcription engine ready",
			zap.String("provider", "whisper"),
			zap.String("url", r.cfg.WhisperURL),
		)
		return e, nil
	case "assemblyai":
		e, err := NewAssemblyAIEngine(r.cfg.AssemblyAIKey)
		if err != nil {
			return nil, unavailable("assemblyai", err)
		}
		r.logger.Info("transcription engine ready", zap.String("provider", "assemblyai"))
		return e, nil
	default:
		return nil, unavailable(r.cfg.TranscriptionProvider, fmt.Errorf("unknown transcription provider"))
	}
}

// warmupContext detaches ctx from its caller and bounds it by the warm-up timeout
func (r *Registry) warmupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if r.cfg.WarmupTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, r.cfg.WarmupTimeout)
}

func (r *Registry) buildGenerator(ctx context.Context) (GenerationEngine, error) {
	switch r.cfg.GenerationProvider {
	case "ollama":
		e, err := NewOllamaEngine(r.cfg.OllamaURL, r.cfg.OllamaModel, r.cfg.RequestTimeout, r.logger)
		if err != nil {
			return nil, unavailable("ollama", err)
		}
		if err := e.WaitReady(ctx, r.cfg.WarmupTimeout); err != nil {
			return nil, err
		}
		if err := e.EnsureModel(ctx); err != nil {
			return nil, err
		}
		r.logger.Info("generation engine ready",
			zap.String("provider", "ollama"),
			zap.String("model", e.Model()),
		)
		return e, nil
	case "openai":
		e, err := NewOpenAIEngine(r.cfg.OpenAIKey, r.cfg.OpenAIBaseURL, r.cfg.OpenAIModel, r.cfg.RequestTimeout)
		if err != nil {
			return nil, unavailable("openai", err)
		}
		r.logger.Info("generation engine ready",
			zap.String("provider", "openai"),
			zap.String("model", e.Model()),
		)
		return e, nil
	default:
		return nil, unavailable(r.cfg.GenerationProvider, fmt.Errorf("unknown generation provider"))
	}
}

// Loaded reports which engines have been initialised so far
func (r *Registry) Loaded() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]bool{
		"transcriber": r.transcriber != nil,
		"generator":   r.generator != nil,
		"tagger":      r.tagger != nil,
	}
}
