// Package recognition implements the identity matching engine and the
// tie-break arbiter: scoring a captured face against enrolled people,
// banding the confidence, and arbitrating near-ties before a name is ever
// spoken to the user.
package recognition

import "errors"

// Status is the final disposition of one recognition attempt.
type Status string

const (
	// StatusIdentified means the system is confident enough to announce
	// the identity automatically.
	StatusIdentified Status = "identified"
	// StatusNeedsConfirmation means a caregiver should confirm before the
	// identity is presented.
	StatusNeedsConfirmation Status = "needs_confirmation"
	// StatusNotSure means the system abstains. Low confidence, an
	// unresolved tie, and an empty enrollment set all land here.
	StatusNotSure Status = "not_sure"
)

// Band is the coarse confidence bucket derived from the top similarity score.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Centroid is one enrolled person's mean reference vector.
type Centroid struct {
	PersonID string
	Name     string
	Vector   []float32
}

// Candidate is one scored identity in a recognition attempt.
// Ordering is by descending score with ascending person ID breaking exact
// score ties, so results are reproducible.
type Candidate struct {
	PersonID string  `json:"person_id"`
	Name     string  `json:"name,omitempty"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// Outcome is the durable result of one recognition attempt. It is created
// once per frame submission and never mutated afterwards.
type Outcome struct {
	Status          Status      `json:"status"`
	WinnerPersonID  string      `json:"winner_person_id,omitempty"`
	WinnerName      string      `json:"winner_name,omitempty"`
	ConfidenceScore float64     `json:"confidence_score"`
	ConfidenceBand  Band        `json:"confidence_band"`
	Candidates      []Candidate `json:"candidates"`
	UsedTieBreak    bool        `json:"used_tie_break"`
}

// ErrDimensionMismatch indicates a query embedding and a centroid disagree on
// dimensionality. This is a programming error at the boundary, not an
// uncertainty outcome, so the engine fails fast instead of truncating.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")
