package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/announce"
	"github.com/kozaktomas/recall/internal/config"
	"github.com/kozaktomas/recall/internal/enrollment"
	"github.com/kozaktomas/recall/internal/recognition"
)

// Announcer is the slice of the announcement cache the recognize endpoint
// needs to attach spoken-name audio to an identification.
type Announcer interface {
	Ensure(ctx context.Context, req announce.Request) (*announce.Announcement, error)
}

// RecognizeHandler handles frame submissions.
type RecognizeHandler struct {
	config     *config.Config
	pipeline   *recognition.Pipeline
	enrollment *enrollment.Service
	announcer  Announcer
}

// NewRecognizeHandler creates a new recognize handler. The announcer may be
// nil; identifications then come back without audio.
func NewRecognizeHandler(cfg *config.Config, pipeline *recognition.Pipeline, svc *enrollment.Service, announcer Announcer) *RecognizeHandler {
	return &RecognizeHandler{
		config:     cfg,
		pipeline:   pipeline,
		enrollment: svc,
		announcer:  announcer,
	}
}

type recognizeResponse struct {
	Status          recognition.Status      `json:"status"`
	WinnerPersonID  string                  `json:"winner_person_id,omitempty"`
	WinnerName      string                  `json:"winner_name,omitempty"`
	ConfidenceScore float64                 `json:"confidence_score"`
	ConfidenceBand  recognition.Band        `json:"confidence_band"`
	Candidates      []recognition.Candidate `json:"candidates"`
	UsedTieBreak    bool                    `json:"used_tie_break"`
	AudioURL        string                  `json:"audio_url,omitempty"`
}

// Recognize runs one frame through the recognition pipeline. When the frame
// identifies someone, the response carries the URL of their announcement
// audio; audio problems never fail the recognition itself.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")

	frame, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.pipeline.Recognize(r.Context(), patientID, frame)
	if err != nil {
		if errors.Is(err, recognition.ErrDimensionMismatch) {
			log.Printf("recognition misconfigured for %s: %v", sanitizeForLog(patientID), err)
			respondError(w, http.StatusInternalServerError, "recognition misconfigured")
			return
		}
		log.Printf("recognition failed for %s: %v", sanitizeForLog(patientID), err)
		respondError(w, http.StatusBadGateway, "recognition failed")
		return
	}

	resp := recognizeResponse{
		Status:          outcome.Status,
		WinnerPersonID:  outcome.WinnerPersonID,
		WinnerName:      outcome.WinnerName,
		ConfidenceScore: outcome.ConfidenceScore,
		ConfidenceBand:  outcome.ConfidenceBand,
		Candidates:      outcome.Candidates,
		UsedTieBreak:    outcome.UsedTieBreak,
	}

	if outcome.Status == recognition.StatusIdentified {
		resp.AudioURL = h.announcementURL(r.Context(), outcome.WinnerPersonID)
	}

	respondJSON(w, http.StatusOK, resp)
}

// announcementURL fetches (or synthesizes) the winner's announcement audio.
// Returns "" on any failure; the identification stands on its own.
func (h *RecognizeHandler) announcementURL(ctx context.Context, personID string) string {
	if h.announcer == nil {
		return ""
	}

	person, err := h.enrollment.GetPerson(ctx, personID)
	if err != nil {
		log.Printf("failed to load person %s for announcement: %v", sanitizeForLog(personID), err)
		return ""
	}

	preset := h.config.VoicePreset(person.VoicePreset)
	ann, err := h.announcer.Ensure(ctx, announce.Request{
		PersonID: person.ID,
		Text:     announcementText(person.Name, person.Relationship, person.AnnouncementText),
		VoiceID:  preset.VoiceID,
		ModelID:  preset.ModelID,
	})
	if err != nil {
		log.Printf("failed to prepare announcement for %s: %v", sanitizeForLog(personID), err)
		return ""
	}
	return ann.URL
}

// announcementText picks the phrase to speak for a person: the custom text
// when set, otherwise a phrase built from name and relationship.
func announcementText(name, relationship, custom string) string {
	if custom != "" {
		return custom
	}
	if relationship != "" {
		return "This is " + name + ", your " + relationship + "."
	}
	return "This is " + name + "."
}
