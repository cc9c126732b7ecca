package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/enrollment"
)

// PeopleHandler handles person enrollment endpoints.
type PeopleHandler struct {
	enrollment *enrollment.Service
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(svc *enrollment.Service) *PeopleHandler {
	return &PeopleHandler{enrollment: svc}
}

type personRequest struct {
	PatientID        string `json:"patient_id"`
	Name             string `json:"name"`
	Relationship     string `json:"relationship"`
	AnnouncementText string `json:"announcement_text"`
	VoicePreset      string `json:"voice_preset"`
}

type personResponse struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	Name             string    `json:"name"`
	Relationship     string    `json:"relationship,omitempty"`
	AnnouncementText string    `json:"announcement_text,omitempty"`
	VoicePreset      string    `json:"voice_preset,omitempty"`
	ReferenceCount   int       `json:"reference_count"`
	Matchable        bool      `json:"matchable"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toPersonResponse(p *database.Person) personResponse {
	return personResponse{
		ID:               p.ID,
		PatientID:        p.PatientID,
		Name:             p.Name,
		Relationship:     p.Relationship,
		AnnouncementText: p.AnnouncementText,
		VoicePreset:      p.VoicePreset,
		ReferenceCount:   p.ReferenceCount,
		Matchable:        len(p.Centroid) > 0,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// List returns every person enrolled for a patient.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientId")

	people, err := h.enrollment.ListPeople(r.Context(), patientID)
	if err != nil {
		log.Printf("failed to list people for %s: %v", sanitizeForLog(patientID), err)
		respondStorageError(w, err)
		return
	}

	responses := make([]personResponse, 0, len(people))
	for i := range people {
		responses = append(responses, toPersonResponse(&people[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"people": responses})
}

// Create enrolls a new person.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	person := &database.Person{
		PatientID:        req.PatientID,
		Name:             req.Name,
		Relationship:     req.Relationship,
		AnnouncementText: req.AnnouncementText,
		VoicePreset:      req.VoicePreset,
	}
	if err := h.enrollment.CreatePerson(r.Context(), person); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, toPersonResponse(person))
}

// Get returns one person.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	person, err := h.enrollment.GetPerson(r.Context(), chi.URLParam(r, "personId"))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPersonResponse(person))
}

// Update stores the mutable fields of a person.
func (h *PeopleHandler) Update(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")

	person, err := h.enrollment.GetPerson(r.Context(), personID)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	person.Name = req.Name
	person.Relationship = req.Relationship
	person.AnnouncementText = req.AnnouncementText
	person.VoicePreset = req.VoicePreset
	if err := h.enrollment.UpdatePerson(r.Context(), person); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondStorageError(w, err)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toPersonResponse(person))
}

// Delete removes a person and their references.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.enrollment.DeletePerson(r.Context(), chi.URLParam(r, "personId")); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type referenceResponse struct {
	ID        int64     `json:"id"`
	DetScore  float64   `json:"det_score"`
	HasCrop   bool      `json:"has_crop"`
	CreatedAt time.Time `json:"created_at"`
}

// AddReference enrolls one reference photo for a person.
func (h *PeopleHandler) AddReference(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")

	imageData, err := readImageUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := h.enrollment.AddReference(r.Context(), personID, imageData)
	switch {
	case errors.Is(err, enrollment.ErrNoFaceFound):
		respondError(w, http.StatusUnprocessableEntity, "no face found in image")
		return
	case errors.Is(err, enrollment.ErrDuplicateReference):
		respondError(w, http.StatusConflict, "reference is a near-duplicate of an enrolled one")
		return
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
		return
	case err != nil:
		log.Printf("failed to add reference for %s: %v", sanitizeForLog(personID), err)
		respondError(w, http.StatusInternalServerError, "failed to add reference")
		return
	}

	respondJSON(w, http.StatusCreated, referenceResponse{
		ID:        ref.ID,
		DetScore:  ref.DetScore,
		HasCrop:   len(ref.CropImage) > 0,
		CreatedAt: ref.CreatedAt,
	})
}

// ListReferences returns the stored references for a person.
func (h *PeopleHandler) ListReferences(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")

	if _, err := h.enrollment.GetPerson(r.Context(), personID); err != nil {
		respondStorageError(w, err)
		return
	}

	refs, err := h.enrollment.ListReferences(r.Context(), personID)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	responses := make([]referenceResponse, 0, len(refs))
	for _, ref := range refs {
		responses = append(responses, referenceResponse{
			ID:        ref.ID,
			DetScore:  ref.DetScore,
			HasCrop:   len(ref.CropImage) > 0,
			CreatedAt: ref.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"references": responses})
}

// RemoveReference deletes one reference.
func (h *PeopleHandler) RemoveReference(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personId")
	referenceID, err := strconv.ParseInt(chi.URLParam(r, "referenceId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reference ID")
		return
	}

	if err := h.enrollment.RemoveReference(r.Context(), personID, referenceID); err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
