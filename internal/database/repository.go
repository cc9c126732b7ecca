package database

import "context"

// PersonRepository stores enrolled people and their centroids.
type PersonRepository interface {
	// Create stores a new person and returns it with timestamps filled in.
	Create(ctx context.Context, person *Person) error
	// Get retrieves a person by ID. Returns ErrNotFound when missing.
	Get(ctx context.Context, id string) (*Person, error)
	// Update stores mutable person fields (name, relationship, announcement
	// text, voice preset). Returns ErrNotFound when missing.
	Update(ctx context.Context, person *Person) error
	// Delete removes a person and, via cascade, their reference embeddings.
	Delete(ctx context.Context, id string) error
	// ListByPatient returns every person enrolled for a patient, ordered by name.
	ListByPatient(ctx context.Context, patientID string) ([]Person, error)
	// UpdateCentroid stores a freshly recomputed centroid. A nil centroid
	// clears it (person has no references left).
	UpdateCentroid(ctx context.Context, personID string, centroid []float32) error
}

// ReferenceRepository stores per-person reference embeddings and face crops.
type ReferenceRepository interface {
	// Add stores one reference embedding and fills in its ID.
	Add(ctx context.Context, ref *ReferenceEmbedding) error
	// Delete removes one reference owned by the given person. Returns
	// ErrNotFound when missing or owned by someone else.
	Delete(ctx context.Context, personID string, id int64) error
	// ListByPerson returns all references for a person, best detection first.
	ListByPerson(ctx context.Context, personID string) ([]ReferenceEmbedding, error)
	// CropsByPerson returns up to limit stored face crops, best detection first.
	CropsByPerson(ctx context.Context, personID string, limit int) ([][]byte, error)
}

// EventRepository stores recognition audit events.
type EventRepository interface {
	// Insert stores one recognition event.
	Insert(ctx context.Context, ev *RecognitionEvent) error
	// RecentByPatient returns the newest events for a patient, newest first.
	RecentByPatient(ctx context.Context, patientID string, limit int) ([]RecognitionEvent, error)
}

// AnnouncementRepository stores the durable announcement cache records.
type AnnouncementRepository interface {
	// Get retrieves a cached announcement by phrase key. Returns ErrNotFound
	// when the phrase has never been synthesized.
	Get(ctx context.Context, phraseKey string) (*CachedAnnouncement, error)
	// Upsert stores a cache record, replacing any previous record for the
	// same phrase key.
	Upsert(ctx context.Context, ann *CachedAnnouncement) error
	// ListByPerson returns the cached announcements attributed to a person.
	ListByPerson(ctx context.Context, personID string) ([]CachedAnnouncement, error)
}
