// Package mock provides in-memory implementations of the repository
// interfaces for tests. All stores are safe for concurrent use.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/recall/internal/database"
)

// Store bundles in-memory repositories backed by shared maps.
type Store struct {
	mu            sync.RWMutex
	people        map[string]*database.Person
	references    map[int64]*database.ReferenceEmbedding
	events        []database.RecognitionEvent
	announcements map[string]*database.CachedAnnouncement
	nextRefID     int64
	nextEventID   int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		people:        make(map[string]*database.Person),
		references:    make(map[int64]*database.ReferenceEmbedding),
		announcements: make(map[string]*database.CachedAnnouncement),
	}
}

func (s *Store) Create(_ context.Context, person *database.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now

	stored := *person
	s.people[person.ID] = &stored
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*database.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	person, ok := s.people[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *person
	copied.ReferenceCount = s.countReferencesLocked(id)
	return &copied, nil
}

func (s *Store) Update(_ context.Context, person *database.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.people[person.ID]
	if !ok {
		return database.ErrNotFound
	}
	stored.Name = person.Name
	stored.Relationship = person.Relationship
	stored.AnnouncementText = person.AnnouncementText
	stored.VoicePreset = person.VoicePreset
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.people, id)
	for refID, ref := range s.references {
		if ref.PersonID == id {
			delete(s.references, refID)
		}
	}
	return nil
}

func (s *Store) ListByPatient(_ context.Context, patientID string) ([]database.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var people []database.Person
	for _, person := range s.people {
		if person.PatientID != patientID {
			continue
		}
		copied := *person
		copied.ReferenceCount = s.countReferencesLocked(person.ID)
		people = append(people, copied)
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].Name != people[j].Name {
			return people[i].Name < people[j].Name
		}
		return people[i].ID < people[j].ID
	})
	return people, nil
}

func (s *Store) UpdateCentroid(_ context.Context, personID string, centroid []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, ok := s.people[personID]
	if !ok {
		return database.ErrNotFound
	}
	person.Centroid = centroid
	person.UpdatedAt = time.Now()
	return nil
}

func (s *Store) countReferencesLocked(personID string) int {
	count := 0
	for _, ref := range s.references {
		if ref.PersonID == personID {
			count++
		}
	}
	return count
}

func (s *Store) Add(_ context.Context, ref *database.ReferenceEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRefID++
	ref.ID = s.nextRefID
	ref.CreatedAt = time.Now()

	stored := *ref
	s.references[ref.ID] = &stored
	return nil
}

func (s *Store) DeleteReference(_ context.Context, personID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.references[id]
	if !ok || ref.PersonID != personID {
		return database.ErrNotFound
	}
	delete(s.references, id)
	return nil
}

func (s *Store) ListByPerson(_ context.Context, personID string) ([]database.ReferenceEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []database.ReferenceEmbedding
	for _, ref := range s.references {
		if ref.PersonID == personID {
			refs = append(refs, *ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].DetScore != refs[j].DetScore {
			return refs[i].DetScore > refs[j].DetScore
		}
		return refs[i].ID < refs[j].ID
	})
	return refs, nil
}

func (s *Store) CropsByPerson(ctx context.Context, personID string, limit int) ([][]byte, error) {
	refs, err := s.ListByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	var crops [][]byte
	for _, ref := range refs {
		if len(ref.CropImage) == 0 {
			continue
		}
		crops = append(crops, ref.CropImage)
		if len(crops) == limit {
			break
		}
	}
	return crops, nil
}

func (s *Store) Insert(_ context.Context, ev *database.RecognitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	ev.ID = s.nextEventID
	ev.CreatedAt = time.Now()
	s.events = append(s.events, *ev)
	return nil
}

func (s *Store) RecentByPatient(_ context.Context, patientID string, limit int) ([]database.RecognitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []database.RecognitionEvent
	for i := len(s.events) - 1; i >= 0 && len(events) < limit; i-- {
		if s.events[i].PatientID == patientID {
			events = append(events, s.events[i])
		}
	}
	return events, nil
}

// Events returns a copy of every stored recognition event, oldest first.
func (s *Store) Events() []database.RecognitionEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]database.RecognitionEvent(nil), s.events...)
}

func (s *Store) GetAnnouncement(_ context.Context, phraseKey string) (*database.CachedAnnouncement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ann, ok := s.announcements[phraseKey]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *ann
	return &copied, nil
}

func (s *Store) UpsertAnnouncement(_ context.Context, ann *database.CachedAnnouncement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ann.CreatedAt = time.Now()
	stored := *ann
	s.announcements[ann.PhraseKey] = &stored
	return nil
}

func (s *Store) ListAnnouncementsByPerson(_ context.Context, personID string) ([]database.CachedAnnouncement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var anns []database.CachedAnnouncement
	for _, ann := range s.announcements {
		if ann.PersonID == personID {
			anns = append(anns, *ann)
		}
	}
	sort.Slice(anns, func(i, j int) bool {
		return anns[i].PhraseKey < anns[j].PhraseKey
	})
	return anns, nil
}

// Announcements adapts the store to the AnnouncementRepository interface,
// whose method names collide with the reference repository's.
func (s *Store) Announcements() database.AnnouncementRepository {
	return announcementView{s}
}

// References adapts the store to the ReferenceRepository interface.
func (s *Store) References() database.ReferenceRepository {
	return referenceView{s}
}

type announcementView struct{ s *Store }

func (v announcementView) Get(ctx context.Context, phraseKey string) (*database.CachedAnnouncement, error) {
	return v.s.GetAnnouncement(ctx, phraseKey)
}

func (v announcementView) Upsert(ctx context.Context, ann *database.CachedAnnouncement) error {
	return v.s.UpsertAnnouncement(ctx, ann)
}

func (v announcementView) ListByPerson(ctx context.Context, personID string) ([]database.CachedAnnouncement, error) {
	return v.s.ListAnnouncementsByPerson(ctx, personID)
}

type referenceView struct{ s *Store }

func (v referenceView) Add(ctx context.Context, ref *database.ReferenceEmbedding) error {
	return v.s.Add(ctx, ref)
}

func (v referenceView) Delete(ctx context.Context, personID string, id int64) error {
	return v.s.DeleteReference(ctx, personID, id)
}

func (v referenceView) ListByPerson(ctx context.Context, personID string) ([]database.ReferenceEmbedding, error) {
	return v.s.ListByPerson(ctx, personID)
}

func (v referenceView) CropsByPerson(ctx context.Context, personID string, limit int) ([][]byte, error) {
	return v.s.CropsByPerson(ctx, personID, limit)
}
