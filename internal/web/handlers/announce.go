package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/announce"
	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/enrollment"
	"github.com/kozaktomas/recall/internal/tts"
)

// AnnouncementHandler handles announcement audio endpoints.
type AnnouncementHandler struct {
	config     *config.Config
	enrollment *enrollment.Service
	announcer  Announcer
}

// NewAnnouncementHandler creates a new announcement handler.
func NewAnnouncementHandler(cfg *config.Config, svc *enrollment.Service, announcer Announcer) *AnnouncementHandler {
	return &AnnouncementHandler{
		config:     cfg,
		enrollment: svc,
		announcer:  announcer,
	}
}

type announcementRequest struct {
	// Text overrides the person's stored announcement text for this call.
	Text string `json:"text"`
}

type announcementResponse struct {
	PhraseKey string `json:"phrase_key"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
	Cached    bool   `json:"cached"`
}

// Generate ensures announcement audio exists for a person and returns its
// URL. The regenerate query parameter forces a fresh synthesis.
func (h *AnnouncementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")

	person, err := h.enrollment.GetPerson(r.Context(), personID)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var req announcementRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	text := req.Text
	if text == "" {
		text = announcementText(person.Name, person.Relationship, person.AnnouncementText)
	}
	preset := h.config.VoicePreset(person.VoicePreset)

	regenerate := r.URL.Query().Get("regenerate") == "true" || r.URL.Query().Get("regenerate") == "1"

	ann, err := h.announcer.Ensure(r.Context(), announce.Request{
		PersonID:   person.ID,
		Text:       text,
		VoiceID:    preset.VoiceID,
		ModelID:    preset.ModelID,
		Regenerate: regenerate,
	})
	if err != nil {
		h.respondSynthesisError(w, personID, err)
		return
	}

	respondJSON(w, http.StatusOK, announcementResponse{
		PhraseKey: ann.PhraseKey,
		URL:       ann.URL,
		SizeBytes: ann.SizeBytes,
		Cached:    ann.Cached,
	})
}

// respondSynthesisError maps cache and provider failures onto HTTP statuses:
// bad input is the caller's problem, a missing voice is configuration, a
// retryable provider failure asks the caller to come back.
func (h *AnnouncementHandler) respondSynthesisError(w http.ResponseWriter, personID string, err error) {
	log.Printf("announcement synthesis failed for %s: %v", sanitizeForLog(personID), err)

	var provErr *tts.ProviderError
	switch {
	case errors.Is(err, announce.ErrEmptyText):
		respondError(w, http.StatusBadRequest, "announcement text is empty")
	case errors.Is(err, tts.ErrVoiceNotFound):
		respondError(w, http.StatusUnprocessableEntity, "configured voice not found")
	case errors.As(err, &provErr) && provErr.Retryable:
		respondError(w, http.StatusServiceUnavailable, "synthesis temporarily unavailable")
	default:
		respondError(w, http.StatusBadGateway, "synthesis failed")
	}
}
