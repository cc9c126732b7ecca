package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("RECOGNITION_TOP_K")
	os.Unsetenv("RECOGNITION_HIGH_THRESHOLD")
	os.Unsetenv("RECOGNITION_MEDIUM_THRESHOLD")
	os.Unsetenv("RECOGNITION_TIE_THRESHOLD")

	cfg := Load()

	if cfg.Recognition.TopK != 5 {
		t.Errorf("expected TopK 5, got %d", cfg.Recognition.TopK)
	}
	if cfg.Recognition.HighThreshold != 0.85 {
		t.Errorf("expected HighThreshold 0.85, got %v", cfg.Recognition.HighThreshold)
	}
	if cfg.Recognition.MediumThreshold != 0.60 {
		t.Errorf("expected MediumThreshold 0.60, got %v", cfg.Recognition.MediumThreshold)
	}
	if cfg.Recognition.TieThreshold != 0.08 {
		t.Errorf("expected TieThreshold 0.08, got %v", cfg.Recognition.TieThreshold)
	}
	if cfg.Recognition.TieBreakTimeout != 2500 {
		t.Errorf("expected TieBreakTimeout 2500, got %d", cfg.Recognition.TieBreakTimeout)
	}
	if cfg.Synthesis.TimeoutMs != 45000 {
		t.Errorf("expected synthesis timeout 45000, got %d", cfg.Synthesis.TimeoutMs)
	}
	if cfg.Embedding.Dim != 512 {
		t.Errorf("expected embedding dim 512, got %d", cfg.Embedding.Dim)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RECOGNITION_TOP_K", "3")
	t.Setenv("RECOGNITION_TIE_THRESHOLD", "0.12")
	t.Setenv("EMBEDDING_DIM", "128")

	cfg := Load()

	if cfg.Recognition.TopK != 3 {
		t.Errorf("expected TopK 3, got %d", cfg.Recognition.TopK)
	}
	if cfg.Recognition.TieThreshold != 0.12 {
		t.Errorf("expected TieThreshold 0.12, got %v", cfg.Recognition.TieThreshold)
	}
	if cfg.Embedding.Dim != 128 {
		t.Errorf("expected embedding dim 128, got %d", cfg.Embedding.Dim)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RECOGNITION_TOP_K", "not-a-number")
	t.Setenv("RECOGNITION_HIGH_THRESHOLD", "1.5") // out of range

	cfg := Load()

	if cfg.Recognition.TopK != 5 {
		t.Errorf("expected fallback TopK 5, got %d", cfg.Recognition.TopK)
	}
	if cfg.Recognition.HighThreshold != 0.85 {
		t.Errorf("expected fallback HighThreshold 0.85, got %v", cfg.Recognition.HighThreshold)
	}
}

func TestVoicePresets(t *testing.T) {
	cfg := Load()

	if len(cfg.Voices.Presets) == 0 {
		t.Fatal("expected embedded voice presets")
	}

	def := cfg.VoicePreset("")
	if def.VoiceID == "" {
		t.Error("default preset should have a voice ID")
	}

	named := cfg.VoicePreset("openai-alloy")
	if named.Provider != "openai" {
		t.Errorf("expected provider 'openai', got '%s'", named.Provider)
	}
	if named.VoiceID != "alloy" {
		t.Errorf("expected voice 'alloy', got '%s'", named.VoiceID)
	}

	unknown := cfg.VoicePreset("does-not-exist")
	if unknown.VoiceID != def.VoiceID {
		t.Error("unknown preset should fall back to default")
	}
}
