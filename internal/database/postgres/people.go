package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/recall/internal/database"
)

// PersonRepository provides PostgreSQL-backed person storage.
type PersonRepository struct {
	pool *Pool
}

// NewPersonRepository creates a new PostgreSQL person repository.
func NewPersonRepository(pool *Pool) *PersonRepository {
	return &PersonRepository{pool: pool}
}

// Create stores a new person. An empty ID is replaced with a fresh UUID.
func (r *PersonRepository) Create(ctx context.Context, person *database.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}

	query := `
		INSERT INTO people (id, patient_id, name, relationship, announcement_text, voice_preset)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		person.ID,
		person.PatientID,
		person.Name,
		person.Relationship,
		person.AnnouncementText,
		person.VoicePreset,
	).Scan(&person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

// Get retrieves a person by ID.
func (r *PersonRepository) Get(ctx context.Context, id string) (*database.Person, error) {
	query := `
		SELECT p.id, p.patient_id, p.name, p.relationship, p.announcement_text,
		       p.voice_preset, p.centroid, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM reference_embeddings re WHERE re.person_id = p.id)
		FROM people p
		WHERE p.id = $1
	`

	var person database.Person
	var centroid *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&person.ID,
		&person.PatientID,
		&person.Name,
		&person.Relationship,
		&person.AnnouncementText,
		&person.VoicePreset,
		&centroid,
		&person.CreatedAt,
		&person.UpdatedAt,
		&person.ReferenceCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}

	if centroid != nil {
		person.Centroid = centroid.Slice()
	}
	return &person, nil
}

// Update stores the mutable person fields.
func (r *PersonRepository) Update(ctx context.Context, person *database.Person) error {
	query := `
		UPDATE people
		SET name = $2, relationship = $3, announcement_text = $4, voice_preset = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		person.ID,
		person.Name,
		person.Relationship,
		person.AnnouncementText,
		person.VoicePreset,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return requireRowAffected(result)
}

// Delete removes a person; reference embeddings go with it via cascade.
func (r *PersonRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM people WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return requireRowAffected(result)
}

// ListByPatient returns every person enrolled for a patient, ordered by name.
func (r *PersonRepository) ListByPatient(ctx context.Context, patientID string) ([]database.Person, error) {
	query := `
		SELECT p.id, p.patient_id, p.name, p.relationship, p.announcement_text,
		       p.voice_preset, p.centroid, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM reference_embeddings re WHERE re.person_id = p.id)
		FROM people p
		WHERE p.patient_id = $1
		ORDER BY p.name, p.id
	`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []database.Person
	for rows.Next() {
		var person database.Person
		var centroid *pgvector.Vector
		if err := rows.Scan(
			&person.ID,
			&person.PatientID,
			&person.Name,
			&person.Relationship,
			&person.AnnouncementText,
			&person.VoicePreset,
			&centroid,
			&person.CreatedAt,
			&person.UpdatedAt,
			&person.ReferenceCount,
		); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		if centroid != nil {
			person.Centroid = centroid.Slice()
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

// UpdateCentroid stores a freshly recomputed centroid, or clears it when nil.
func (r *PersonRepository) UpdateCentroid(ctx context.Context, personID string, centroid []float32) error {
	var value any
	if centroid != nil {
		v := pgvector.NewVector(centroid)
		value = v
	}

	result, err := r.pool.Exec(ctx,
		"UPDATE people SET centroid = $2, updated_at = NOW() WHERE id = $1",
		personID, value)
	if err != nil {
		return fmt.Errorf("update centroid: %w", err)
	}
	return requireRowAffected(result)
}

// requireRowAffected maps a zero-row write onto ErrNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}
