package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultElevenLabsURL   = "https://api.elevenlabs.io"
	defaultElevenLabsModel = "eleven_multilingual_v2"

	// elevenLabsOutputFormat is fixed: 44.1 kHz 128 kbps MP3 plays everywhere
	// the announcement audio is consumed.
	elevenLabsOutputFormat = "mp3_44100_128"
)

// ElevenLabsProvider implements Provider using the ElevenLabs API.
type ElevenLabsProvider struct {
	parsedURL *url.URL
	apiKey    string
	voiceID   string
	modelID   string
	client    *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs provider. The voice and model
// given here are defaults; per-request values override them.
func NewElevenLabsProvider(baseURL, apiKey, voiceID, modelID string) (*ElevenLabsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ElevenLabs API key is required")
	}
	if baseURL == "" {
		baseURL = defaultElevenLabsURL
	}
	if modelID == "" {
		modelID = defaultElevenLabsModel
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ElevenLabs URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid ElevenLabs URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid ElevenLabs URL: missing host")
	}
	return &ElevenLabsProvider{
		parsedURL: parsed,
		apiKey:    apiKey,
		voiceID:   voiceID,
		modelID:   modelID,
		client:    &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize converts text to MP3 audio.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = p.voiceID
	}
	if voiceID == "" {
		return nil, ErrVoiceNotFound
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = p.modelID
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: modelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := *p.parsedURL
	endpoint.Path += "/v1/text-to-speech/" + url.PathEscape(voiceID)
	endpoint.RawQuery = url.Values{"output_format": {elevenLabsOutputFormat}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.errorFromResponse(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: "empty audio response", Retryable: true}
	}

	return &Result{Audio: audio, MIMEType: "audio/mpeg"}, nil
}

// errorFromResponse maps an ElevenLabs error status onto the typed errors.
func (p *ElevenLabsProvider) errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := strings.TrimSpace(string(raw))
	var parsed elevenLabsError
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Detail.Message != "" {
		message = parsed.Detail.Message
		if parsed.Detail.Status == "voice_not_found" {
			return fmt.Errorf("%w: %s", ErrVoiceNotFound, message)
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrVoiceNotFound, message)
	}

	return &ProviderError{
		Provider:   p.Name(),
		StatusCode: resp.StatusCode,
		Message:    message,
		Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
	}
}
