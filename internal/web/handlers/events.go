package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/database"
)

// defaultEventLimit caps the events endpoint when no limit is given.
const defaultEventLimit = 50

// EventsHandler serves the recognition audit trail.
type EventsHandler struct {
	events database.EventRepository
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(repo database.EventRepository) *EventsHandler {
	return &EventsHandler{events: repo}
}

type eventResponse struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	WinnerPersonID  string          `json:"winner_person_id,omitempty"`
	ConfidenceScore float64         `json:"confidence_score"`
	ConfidenceBand  string          `json:"confidence_band"`
	FaceDetected    bool            `json:"face_detected"`
	UsedTieBreak    bool            `json:"used_tie_break"`
	Candidates      json.RawMessage `json:"candidates"`
	ElapsedMs       int64           `json:"elapsed_ms"`
	CreatedAt       time.Time       `json:"created_at"`
}

// List returns the newest recognition events for a patient.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")

	limit := defaultEventLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.events.RecentByPatient(r.Context(), patientID, limit)
	if err != nil {
		log.Printf("failed to list events for %s: %v", sanitizeForLog(patientID), err)
		respondStorageError(w, err)
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		candidates := json.RawMessage(ev.CandidatesJSON)
		if len(candidates) == 0 {
			candidates = json.RawMessage("[]")
		}
		responses = append(responses, eventResponse{
			ID:              ev.ID,
			Status:          ev.Status,
			WinnerPersonID:  ev.WinnerPersonID,
			ConfidenceScore: ev.ConfidenceScore,
			ConfidenceBand:  ev.ConfidenceBand,
			FaceDetected:    ev.FaceDetected,
			UsedTieBreak:    ev.UsedTieBreak,
			Candidates:      candidates,
			ElapsedMs:       ev.ElapsedMs,
			CreatedAt:       ev.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": responses})
}
