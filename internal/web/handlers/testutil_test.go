package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/announce"
	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/database/mock"
	"github.com/kozaktomas/recall/internal/embedding"
	"github.com/kozaktomas/recall/internal/enrollment"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Recognition: config.RecognitionConfig{
			TopK:            5,
			HighThreshold:   0.85,
			MediumThreshold: 0.60,
			TieThreshold:    0.08,
			TieBreakTimeout: 2500,
		},
		Voices: config.VoicesConfig{
			Default: "calm-female",
			Presets: map[string]config.VoicePreset{
				"calm-female": {Provider: "elevenlabs", VoiceID: "voice-calm", ModelID: "eleven_multilingual_v2"},
				"warm-male":   {Provider: "elevenlabs", VoiceID: "voice-warm", ModelID: "eleven_multilingual_v2"},
			},
		},
	}
}

// testEnrollment creates an enrollment service backed by an in-memory store
// and the deterministic stub embedding provider.
func testEnrollment(t *testing.T) (*enrollment.Service, *mock.Store) {
	t.Helper()
	store := mock.NewStore()
	provider := embedding.NewStubProvider(64, "handlers-test")
	return enrollment.NewService(store, store.References(), provider), store
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newImageUploadRequest creates a multipart request carrying one image file
func newImageUploadRequest(t *testing.T, method, path string, imageData []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(imageData); err != nil {
		t.Fatalf("failed to write image data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal request payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// fakeAnnouncer records Ensure calls and returns a canned announcement or error.
type fakeAnnouncer struct {
	requests []announce.Request
	result   *announce.Announcement
	err      error
}

func (f *fakeAnnouncer) Ensure(_ context.Context, req announce.Request) (*announce.Announcement, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &announce.Announcement{
		PhraseKey: "abc123",
		ObjectKey: "announcements/abc123.mp3",
		URL:       "/audio/announcements/abc123.mp3",
		SizeBytes: 1024,
		Cached:    true,
	}, nil
}
