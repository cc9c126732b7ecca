package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/recall/internal/database"
)

// EventRepository provides PostgreSQL-backed recognition event storage.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Insert stores one recognition event.
func (r *EventRepository) Insert(ctx context.Context, ev *database.RecognitionEvent) error {
	winner := sql.NullString{String: ev.WinnerPersonID, Valid: ev.WinnerPersonID != ""}
	candidates := ev.CandidatesJSON
	if len(candidates) == 0 {
		candidates = []byte("[]")
	}

	query := `
		INSERT INTO recognition_events
			(patient_id, status, winner_person_id, confidence_score, confidence_band,
			 face_detected, used_tie_break, candidates, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		ev.PatientID,
		ev.Status,
		winner,
		ev.ConfidenceScore,
		ev.ConfidenceBand,
		ev.FaceDetected,
		ev.UsedTieBreak,
		candidates,
		ev.ElapsedMs,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recognition event: %w", err)
	}
	return nil
}

// RecentByPatient returns the newest events for a patient, newest first.
func (r *EventRepository) RecentByPatient(ctx context.Context, patientID string, limit int) ([]database.RecognitionEvent, error) {
	query := `
		SELECT id, patient_id, status, winner_person_id, confidence_score, confidence_band,
		       face_detected, used_tie_break, candidates, elapsed_ms, created_at
		FROM recognition_events
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recognition events: %w", err)
	}
	defer rows.Close()

	var events []database.RecognitionEvent
	for rows.Next() {
		var ev database.RecognitionEvent
		var winner sql.NullString
		if err := rows.Scan(
			&ev.ID,
			&ev.PatientID,
			&ev.Status,
			&winner,
			&ev.ConfidenceScore,
			&ev.ConfidenceBand,
			&ev.FaceDetected,
			&ev.UsedTieBreak,
			&ev.CandidatesJSON,
			&ev.ElapsedMs,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recognition event: %w", err)
		}
		ev.WinnerPersonID = winner.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognition events: %w", err)
	}
	return events, nil
}
