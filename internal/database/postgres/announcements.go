package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/recall/internal/database"
)

// AnnouncementRepository provides PostgreSQL-backed announcement cache records.
type AnnouncementRepository struct {
	pool *Pool
}

// NewAnnouncementRepository creates a new PostgreSQL announcement repository.
func NewAnnouncementRepository(pool *Pool) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

// Get retrieves a cached announcement by phrase key.
func (r *AnnouncementRepository) Get(ctx context.Context, phraseKey string) (*database.CachedAnnouncement, error) {
	query := `
		SELECT phrase_key, COALESCE(person_id::text, ''), text, voice_id, model_id,
		       object_key, size_bytes, created_at
		FROM cached_announcements
		WHERE phrase_key = $1
	`

	var ann database.CachedAnnouncement
	err := r.pool.QueryRow(ctx, query, phraseKey).Scan(
		&ann.PhraseKey,
		&ann.PersonID,
		&ann.Text,
		&ann.VoiceID,
		&ann.ModelID,
		&ann.ObjectKey,
		&ann.SizeBytes,
		&ann.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cached announcement: %w", err)
	}
	return &ann, nil
}

// Upsert stores a cache record, replacing any previous record for the key.
func (r *AnnouncementRepository) Upsert(ctx context.Context, ann *database.CachedAnnouncement) error {
	person := sql.NullString{String: ann.PersonID, Valid: ann.PersonID != ""}

	query := `
		INSERT INTO cached_announcements
			(phrase_key, person_id, text, voice_id, model_id, object_key, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (phrase_key) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			text = EXCLUDED.text,
			voice_id = EXCLUDED.voice_id,
			model_id = EXCLUDED.model_id,
			object_key = EXCLUDED.object_key,
			size_bytes = EXCLUDED.size_bytes,
			created_at = NOW()
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		ann.PhraseKey,
		person,
		ann.Text,
		ann.VoiceID,
		ann.ModelID,
		ann.ObjectKey,
		ann.SizeBytes,
	).Scan(&ann.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert cached announcement: %w", err)
	}
	return nil
}

// ListByPerson returns the cached announcements attributed to a person.
func (r *AnnouncementRepository) ListByPerson(ctx context.Context, personID string) ([]database.CachedAnnouncement, error) {
	query := `
		SELECT phrase_key, COALESCE(person_id::text, ''), text, voice_id, model_id,
		       object_key, size_bytes, created_at
		FROM cached_announcements
		WHERE person_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("list cached announcements: %w", err)
	}
	defer rows.Close()

	var anns []database.CachedAnnouncement
	for rows.Next() {
		var ann database.CachedAnnouncement
		if err := rows.Scan(
			&ann.PhraseKey,
			&ann.PersonID,
			&ann.Text,
			&ann.VoiceID,
			&ann.ModelID,
			&ann.ObjectKey,
			&ann.SizeBytes,
			&ann.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cached announcement: %w", err)
		}
		anns = append(anns, ann)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached announcements: %w", err)
	}
	return anns, nil
}
