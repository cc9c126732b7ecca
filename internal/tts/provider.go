// Package tts synthesizes announcement phrases into audio. Providers are
// interchangeable behind a single interface; failure modes are typed so the
// announcement cache can tell a permanent misconfiguration (bad voice) from
// a transient synthesis failure worth retrying.
package tts

import (
	"context"
	"errors"
	"fmt"
)

// ErrVoiceNotFound indicates the configured voice does not exist at the
// provider. Retrying with the same configuration cannot succeed.
var ErrVoiceNotFound = errors.New("voice not found")

// ProviderError is a synthesis failure returned by a provider backend.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s synthesis failed (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Request describes one phrase to synthesize.
type Request struct {
	Text    string
	VoiceID string
	ModelID string
}

// Result is the synthesized audio.
type Result struct {
	Audio    []byte
	MIMEType string
}

// Provider turns text into speech.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (*Result, error)
}
