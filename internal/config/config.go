package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed voices.yaml
var voicesYAML []byte

type Config struct {
	Recognition RecognitionConfig
	Embedding   EmbeddingConfig
	Arbiter     ArbiterConfig
	Synthesis   SynthesisConfig
	Database    DatabaseConfig
	AudioStore  AudioStoreConfig
	Web         WebConfig
	Voices      VoicesConfig
}

// RecognitionConfig centralizes every banding and tie constant used by the
// matching engine. The same struct is passed by reference into the engine and
// the recognition pipeline so thresholds are never duplicated at call sites.
type RecognitionConfig struct {
	TopK            int     // candidates reported to the caller (default 5)
	HighThreshold   float64 // top score >= this => band high (default 0.85)
	MediumThreshold float64 // top score >= this => band medium (default 0.60)
	TieThreshold    float64 // top1-top2 < this => tie-break (default 0.08)
	TieBreakTimeout int     // arbiter budget in milliseconds (default 2500)
}

type EmbeddingConfig struct {
	Provider string // "server" (face embedding server) or "stub"
	URL      string // face embedding server, defaults to http://localhost:8000
	Dim      int    // embedding dimensionality, defaults to 512
	StubSalt string // salt for the deterministic stub provider
}

type ArbiterConfig struct {
	GeminiAPIKey string
	GeminiModel  string // defaults to gemini-2.5-flash
}

type SynthesisConfig struct {
	Provider          string // "elevenlabs" (default) or "openai"
	TimeoutMs         int    // synthesis budget in milliseconds (default 45000)
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModelID string
	OpenAIToken       string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type AudioStoreConfig struct {
	Backend        string // "minio" or "local"
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	LocalDir       string // directory for the local backend (default ./announcements)
	URLTTLSeconds  int    // presigned URL lifetime (default 3600)
}

type WebConfig struct {
	Port           int
	Host           string
	APIToken       string   // bearer token required on /api/v1 routes (empty disables auth)
	AllowedOrigins []string // CORS whitelist; localhost is always allowed
}

// VoicesConfig holds the shipped voice presets, keyed by preset name.
type VoicesConfig struct {
	Presets map[string]VoicePreset `yaml:"presets"`
	Default string                 `yaml:"default"`
}

type VoicePreset struct {
	Provider string `yaml:"provider"`
	VoiceID  string `yaml:"voice_id"`
	ModelID  string `yaml:"model_id"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable, falling back to a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool treats "1", "true" and "yes" as true.
func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// envList splits a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var vals []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

func Load() *Config {
	var voices VoicesConfig
	if err := yaml.Unmarshal(voicesYAML, &voices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded voices.yaml: " + err.Error())
	}

	return &Config{
		Recognition: RecognitionConfig{
			TopK:            envInt("RECOGNITION_TOP_K", 5),
			HighThreshold:   envFloat("RECOGNITION_HIGH_THRESHOLD", 0.85),
			MediumThreshold: envFloat("RECOGNITION_MEDIUM_THRESHOLD", 0.60),
			TieThreshold:    envFloat("RECOGNITION_TIE_THRESHOLD", 0.08),
			TieBreakTimeout: envInt("TIEBREAK_TIMEOUT_MS", 2500),
		},
		Embedding: EmbeddingConfig{
			Provider: envString("EMBEDDING_PROVIDER", "server"),
			URL:      os.Getenv("EMBEDDING_URL"),
			Dim:      envInt("EMBEDDING_DIM", 512),
			StubSalt: os.Getenv("EMBEDDING_STUB_SALT"),
		},
		Arbiter: ArbiterConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  envString("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Synthesis: SynthesisConfig{
			Provider:          envString("TTS_PROVIDER", "elevenlabs"),
			TimeoutMs:         envInt("SYNTHESIS_TIMEOUT_MS", 45000),
			ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
			ElevenLabsModelID: envString("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
			OpenAIToken:       os.Getenv("OPENAI_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		AudioStore: AudioStoreConfig{
			Backend:        envString("AUDIO_STORE", "local"),
			MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinioBucket:    envString("MINIO_BUCKET", "announcement-audio"),
			MinioUseSSL:    envBool("MINIO_USE_SSL"),
			LocalDir:       envString("AUDIO_LOCAL_DIR", "./announcements"),
			URLTTLSeconds:  envInt("AUDIO_URL_TTL", 3600),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			APIToken:       os.Getenv("API_TOKEN"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Voices: voices,
	}
}

// VoicePreset returns the named preset, falling back to the default preset
// when name is empty or unknown.
func (c *Config) VoicePreset(name string) VoicePreset {
	if name != "" {
		if p, ok := c.Voices.Presets[name]; ok {
			return p
		}
	}
	if p, ok := c.Voices.Presets[c.Voices.Default]; ok {
		return p
	}
	return VoicePreset{}
}
