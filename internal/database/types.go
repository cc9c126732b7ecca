// Package database defines the stored types and repository interfaces for
// enrollment, recognition auditing and announcement caching. Concrete
// backends live in subpackages (postgres) and in mock for tests.
package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested record does not
// exist. Callers distinguish it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("record not found")

// Person is one enrolled identity belonging to a patient.
type Person struct {
	ID               string
	PatientID        string
	Name             string
	Relationship     string
	AnnouncementText string
	VoicePreset      string
	Centroid         []float32 // L2-normalized mean of reference embeddings, nil until first reference
	ReferenceCount   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReferenceEmbedding is one enrolled reference face for a person.
type ReferenceEmbedding struct {
	ID        int64
	PersonID  string
	Embedding []float32
	CropImage []byte // JPEG face crop kept for tie-break evidence
	DetScore  float64
	CreatedAt time.Time
}

// RecognitionEvent is the audit record of a single recognition attempt.
type RecognitionEvent struct {
	ID              int64
	PatientID       string
	Status          string
	WinnerPersonID  string
	ConfidenceScore float64
	ConfidenceBand  string
	FaceDetected    bool
	UsedTieBreak    bool
	CandidatesJSON  []byte
	ElapsedMs       int64
	CreatedAt       time.Time
}

// CachedAnnouncement is the durable record of one synthesized phrase. The
// phrase key is the content address: a hex SHA-256 over the normalized text
// and voice parameters.
type CachedAnnouncement struct {
	PhraseKey string
	PersonID  string
	Text      string
	VoiceID   string
	ModelID   string
	ObjectKey string
	SizeBytes int64
	CreatedAt time.Time
}
