package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/recall/internal/database"
)

// ReferenceRepository provides PostgreSQL-backed reference embedding storage.
type ReferenceRepository struct {
	pool *Pool
}

// NewReferenceRepository creates a new PostgreSQL reference repository.
func NewReferenceRepository(pool *Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// Add stores one reference embedding and fills in its ID.
func (r *ReferenceRepository) Add(ctx context.Context, ref *database.ReferenceEmbedding) error {
	query := `
		INSERT INTO reference_embeddings (person_id, embedding, crop_image, det_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		ref.PersonID,
		pgvector.NewVector(ref.Embedding),
		ref.CropImage,
		ref.DetScore,
	).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reference embedding: %w", err)
	}
	return nil
}

// Delete removes one reference embedding, scoped to its owner so an ID
// belonging to another person reads as not found.
func (r *ReferenceRepository) Delete(ctx context.Context, personID string, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM reference_embeddings WHERE id = $1 AND person_id = $2", id, personID)
	if err != nil {
		return fmt.Errorf("delete reference embedding: %w", err)
	}
	return requireRowAffected(result)
}

// ListByPerson returns all references for a person, best detection first.
func (r *ReferenceRepository) ListByPerson(ctx context.Context, personID string) ([]database.ReferenceEmbedding, error) {
	query := `
		SELECT id, person_id, embedding, crop_image, det_score, created_at
		FROM reference_embeddings
		WHERE person_id = $1
		ORDER BY det_score DESC, id
	`

	rows, err := r.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("list reference embeddings: %w", err)
	}
	defer rows.Close()

	var refs []database.ReferenceEmbedding
	for rows.Next() {
		var ref database.ReferenceEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&ref.ID, &ref.PersonID, &vec, &ref.CropImage, &ref.DetScore, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reference embedding: %w", err)
		}
		ref.Embedding = vec.Slice()
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference embeddings: %w", err)
	}
	return refs, nil
}

// CropsByPerson returns up to limit stored face crops, best detection first.
// References without a stored crop are skipped.
func (r *ReferenceRepository) CropsByPerson(ctx context.Context, personID string, limit int) ([][]byte, error) {
	query := `
		SELECT crop_image
		FROM reference_embeddings
		WHERE person_id = $1 AND crop_image IS NOT NULL
		ORDER BY det_score DESC, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reference crops: %w", err)
	}
	defer rows.Close()

	var crops [][]byte
	for rows.Next() {
		var crop []byte
		if err := rows.Scan(&crop); err != nil {
			return nil, fmt.Errorf("scan reference crop: %w", err)
		}
		crops = append(crops, crop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference crops: %w", err)
	}
	return crops, nil
}
