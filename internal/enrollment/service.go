// Package enrollment manages the people a patient should recognize: person
// records, their reference face embeddings, and the per-person centroid the
// matching engine scores against. Centroids are recomputed eagerly on every
// reference change so recognition always reads a consistent value.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/embedding"
	"github.com/kozaktomas/recall/internal/recognition"
)

// ErrNoFaceFound is returned when a reference photo contains no detectable face.
var ErrNoFaceFound = errors.New("no face found in image")

// ErrDuplicateReference is returned when a reference photo is nearly
// identical to one already enrolled for the person.
var ErrDuplicateReference = errors.New("reference is a near-duplicate of an enrolled one")

// referenceCropLimit is how many stored crops are handed to callers that
// need visual evidence for a person.
const referenceCropLimit = 3

// Service implements enrollment operations on top of the repositories. It
// also serves the recognition pipeline as its centroid and crop source.
type Service struct {
	people   database.PersonRepository
	refs     database.ReferenceRepository
	provider embedding.Provider
}

// NewService creates an enrollment service.
func NewService(people database.PersonRepository, refs database.ReferenceRepository, provider embedding.Provider) *Service {
	return &Service{people: people, refs: refs, provider: provider}
}

// CreatePerson enrolls a new person for a patient.
func (s *Service) CreatePerson(ctx context.Context, person *database.Person) error {
	if person.PatientID == "" {
		return errors.New("patient ID is required")
	}
	if person.Name == "" {
		return errors.New("name is required")
	}
	return s.people.Create(ctx, person)
}

// GetPerson retrieves a person by ID.
func (s *Service) GetPerson(ctx context.Context, id string) (*database.Person, error) {
	return s.people.Get(ctx, id)
}

// UpdatePerson stores the mutable fields of a person.
func (s *Service) UpdatePerson(ctx context.Context, person *database.Person) error {
	if person.Name == "" {
		return errors.New("name is required")
	}
	return s.people.Update(ctx, person)
}

// DeletePerson removes a person and all their references.
func (s *Service) DeletePerson(ctx context.Context, id string) error {
	return s.people.Delete(ctx, id)
}

// ListPeople returns every person enrolled for a patient.
func (s *Service) ListPeople(ctx context.Context, patientID string) ([]database.Person, error) {
	return s.people.ListByPatient(ctx, patientID)
}

// AddReference enrolls one reference photo for a person: it detects the
// primary face, rejects near-duplicates, stores the embedding with a face
// crop, and recomputes the person's centroid.
func (s *Service) AddReference(ctx context.Context, personID string, imageData []byte) (*database.ReferenceEmbedding, error) {
	if _, err := s.people.Get(ctx, personID); err != nil {
		return nil, err
	}

	faces, err := s.provider.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	face := embedding.PrimaryFace(faces)
	if face == nil {
		return nil, ErrNoFaceFound
	}

	existing, err := s.refs.ListByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing references: %w", err)
	}
	if isNearDuplicate(existing, face.Embedding) {
		return nil, ErrDuplicateReference
	}

	ref := &database.ReferenceEmbedding{
		PersonID:  personID,
		Embedding: face.Embedding,
		DetScore:  face.DetScore,
	}
	if crop, err := cropFace(imageData, face.BBox); err == nil {
		ref.CropImage = crop
	} else {
		// The embedding still enrolls; the person just contributes one
		// fewer crop to future tie-breaks.
		log.Printf("failed to crop reference face for %s: %v", personID, err)
	}

	if err := s.refs.Add(ctx, ref); err != nil {
		return nil, fmt.Errorf("failed to store reference: %w", err)
	}

	if err := s.recomputeCentroid(ctx, personID); err != nil {
		return nil, err
	}
	return ref, nil
}

// RemoveReference deletes one reference and recomputes the centroid. The
// delete is scoped to the person, so a reference ID belonging to someone
// else returns not-found and nothing changes. A person whose last reference
// is removed ends up with no centroid and drops out of matching.
func (s *Service) RemoveReference(ctx context.Context, personID string, referenceID int64) error {
	if err := s.refs.Delete(ctx, personID, referenceID); err != nil {
		return err
	}
	return s.recomputeCentroid(ctx, personID)
}

// ListReferences returns the stored references for a person.
func (s *Service) ListReferences(ctx context.Context, personID string) ([]database.ReferenceEmbedding, error) {
	return s.refs.ListByPerson(ctx, personID)
}

func (s *Service) recomputeCentroid(ctx context.Context, personID string) error {
	refs, err := s.refs.ListByPerson(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to load references for centroid: %w", err)
	}
	if err := s.people.UpdateCentroid(ctx, personID, ComputeCentroid(refs)); err != nil {
		return fmt.Errorf("failed to store centroid: %w", err)
	}
	return nil
}

// CentroidsForPatient returns the matchable centroids for a patient. People
// without references (no centroid yet) are skipped.
func (s *Service) CentroidsForPatient(ctx context.Context, patientID string) ([]recognition.Centroid, error) {
	people, err := s.people.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	centroids := make([]recognition.Centroid, 0, len(people))
	for _, person := range people {
		if len(person.Centroid) == 0 {
			continue
		}
		centroids = append(centroids, recognition.Centroid{
			PersonID: person.ID,
			Name:     person.Name,
			Vector:   person.Centroid,
		})
	}
	return centroids, nil
}

// ReferenceCrops returns the best stored face crops for a person.
func (s *Service) ReferenceCrops(ctx context.Context, personID string) ([][]byte, error) {
	return s.refs.CropsByPerson(ctx, personID, referenceCropLimit)
}
