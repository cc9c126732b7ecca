package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIVoice = "alloy"

// OpenAIProvider implements Provider using the OpenAI speech API.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates an OpenAI speech provider.
func NewOpenAIProvider(apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Synthesize converts text to MP3 audio. The request's VoiceID selects the
// OpenAI voice; ModelID selects the speech model.
func (p *OpenAIProvider) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := req.VoiceID
	if voice == "" {
		voice = defaultOpenAIVoice
	}
	model := req.ModelID
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}

	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(model),
		Input:          req.Text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrVoiceNotFound, apiErr.Message)
			}
			return nil, &ProviderError{
				Provider:   p.Name(),
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Message,
				Retryable:  apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500,
			}
		}
		return nil, fmt.Errorf("OpenAI speech request failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, &ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: "empty audio response", Retryable: true}
	}

	return &Result{Audio: audio, MIMEType: "audio/mpeg"}, nil
}
