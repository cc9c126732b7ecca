package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/recall/internal/announce"
	"github.com/kozaktomas/recall/internal/audio"
	"github.com/kozaktomas/recall/internal/audit"
	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/database/postgres"
	"github.com/kozaktomas/recall/internal/embedding"
	"github.com/kozaktomas/recall/internal/enrollment"
	"github.com/kozaktomas/recall/internal/recognition"
	"github.com/kozaktomas/recall/internal/tts"
)

// app bundles the wired components shared by the CLI commands and the web
// server. Build it once per process with buildApp and Close it on the way out.
type app struct {
	cfg        *config.Config
	pool       *postgres.Pool
	enrollment *enrollment.Service
	pipeline   *recognition.Pipeline
	events     database.EventRepository
	recorder   *audit.Recorder
	announcer  *announce.Cache
	audioDir   string
}

func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			fmt.Printf("Warning: failed to close database pool: %v\n", err)
		}
	}
}

// buildApp connects to PostgreSQL, runs migrations and wires the embedding
// provider, recognition pipeline and announcement cache from the environment.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	a := &app{
		cfg:    cfg,
		pool:   pool,
		events: postgres.NewEventRepository(pool),
	}

	people := postgres.NewPersonRepository(pool)
	refs := postgres.NewReferenceRepository(pool)

	provider, err := buildEmbeddingProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.enrollment = enrollment.NewService(people, refs, provider)
	a.recorder = audit.NewRecorder(a.events, 0)

	arbiter, err := buildArbiter(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	engine := recognition.NewEngine(&cfg.Recognition)
	a.pipeline = recognition.NewPipeline(provider, engine, arbiter, a.enrollment, a.enrollment, a.recorder)

	if err := a.buildAnnouncer(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func buildEmbeddingProvider(cfg *config.Config) (embedding.Provider, error) {
	switch cfg.Embedding.Provider {
	case "stub":
		fmt.Println("Using deterministic stub embedding provider")
		return embedding.NewStubProvider(cfg.Embedding.Dim, cfg.Embedding.StubSalt), nil
	case "server", "":
		url := cfg.Embedding.URL
		if url == "" {
			url = "http://localhost:8000"
		}
		return embedding.NewClient(url, cfg.Embedding.Dim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// buildArbiter creates the Gemini tie-break arbiter when an API key is
// configured. Without one, near-ties resolve to not_sure.
func buildArbiter(ctx context.Context, cfg *config.Config) (*recognition.Arbiter, error) {
	if cfg.Arbiter.GeminiAPIKey == "" {
		fmt.Println("GEMINI_API_KEY not set, tie-break arbitration disabled")
		return nil, nil
	}
	judge, err := recognition.NewGeminiJudge(ctx, cfg.Arbiter.GeminiAPIKey, cfg.Arbiter.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini judge: %w", err)
	}
	return recognition.NewArbiter(judge, time.Duration(cfg.Recognition.TieBreakTimeout)*time.Millisecond), nil
}

// buildAnnouncer wires the audio store and TTS provider into the
// announcement cache. Missing synthesis credentials disable announcements
// instead of failing startup; recognition still works without audio.
func (a *app) buildAnnouncer(ctx context.Context, cfg *config.Config) error {
	ttsProvider, err := buildTTSProvider(cfg)
	if err != nil {
		return err
	}
	if ttsProvider == nil {
		fmt.Println("No TTS credentials configured, announcement audio disabled")
		return nil
	}

	store, err := a.buildAudioStore(ctx, cfg)
	if err != nil {
		return err
	}

	records := postgres.NewAnnouncementRepository(a.pool)
	timeout := time.Duration(cfg.Synthesis.TimeoutMs) * time.Millisecond
	a.announcer = announce.NewCache(store, records, ttsProvider, timeout)
	fmt.Printf("Announcement synthesis enabled (%s)\n", ttsProvider.Name())
	return nil
}

func buildTTSProvider(cfg *config.Config) (tts.Provider, error) {
	switch cfg.Synthesis.Provider {
	case "openai":
		if cfg.Synthesis.OpenAIToken == "" {
			return nil, nil
		}
		provider, err := tts.NewOpenAIProvider(cfg.Synthesis.OpenAIToken)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "elevenlabs", "":
		if cfg.Synthesis.ElevenLabsAPIKey == "" {
			return nil, nil
		}
		provider, err := tts.NewElevenLabsProvider(
			"",
			cfg.Synthesis.ElevenLabsAPIKey,
			cfg.Synthesis.ElevenLabsVoiceID,
			cfg.Synthesis.ElevenLabsModelID,
		)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.Synthesis.Provider)
	}
}

func (a *app) buildAudioStore(ctx context.Context, cfg *config.Config) (audio.Store, error) {
	switch cfg.AudioStore.Backend {
	case "minio":
		store, err := audio.NewMinioStore(ctx, &cfg.AudioStore)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		fmt.Printf("Announcement audio stored in MinIO bucket %s\n", cfg.AudioStore.MinioBucket)
		return store, nil
	case "local", "":
		store, err := audio.NewLocalStore(cfg.AudioStore.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open local audio directory: %w", err)
		}
		a.audioDir = store.Dir()
		fmt.Printf("Announcement audio stored in %s\n", store.Dir())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown audio store backend %q", cfg.AudioStore.Backend)
	}
}
