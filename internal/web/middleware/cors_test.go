package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		wantAllowed bool
	}{
		{"whitelisted origin", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"unknown origin", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"localhost always allowed", nil, "http://localhost:3000", true},
		{"https localhost allowed", nil, "https://localhost:8443", true},
		{"no origin header", []string{"https://app.example.com"}, "", false},
		{"whitespace in configured origin", []string{" https://app.example.com "}, "https://app.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/v1/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			got := recorder.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed && got != tt.origin {
				t.Errorf("expected Allow-Origin %q, got %q", tt.origin, got)
			}
			if !tt.wantAllowed && got != "" {
				t.Errorf("expected no Allow-Origin header, got %q", got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	var reached bool
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/people", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 for preflight, got %d", recorder.Code)
	}
	if reached {
		t.Error("preflight request should not reach the next handler")
	}
	if recorder.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Allow-Methods header on preflight")
	}
}
