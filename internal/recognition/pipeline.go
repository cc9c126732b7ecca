package recognition

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kozaktomas/recall/internal/embedding"
)

// CentroidSource provides the enrolled centroids visible to one patient.
type CentroidSource interface {
	CentroidsForPatient(ctx context.Context, patientID string) ([]Centroid, error)
}

// ReferenceCropSource provides stored reference face crops for a person,
// best quality first. Used only when a tie-break needs visual evidence.
type ReferenceCropSource interface {
	ReferenceCrops(ctx context.Context, personID string) ([][]byte, error)
}

// Event is the audit record of one recognition attempt.
type Event struct {
	PatientID       string
	Status          Status
	WinnerPersonID  string
	ConfidenceScore float64
	ConfidenceBand  Band
	FaceDetected    bool
	UsedTieBreak    bool
	Candidates      []Candidate
	Elapsed         time.Duration
}

// AuditSink records recognition events. Implementations must not block the
// caller; recording is best-effort and a lost event never fails a request.
type AuditSink interface {
	RecordRecognition(ev Event)
}

// Pipeline runs one full recognition attempt: detect the primary face, score
// it against the patient's enrolled people, arbitrate a near-tie if one
// appears, and record the outcome. It is safe for concurrent use.
type Pipeline struct {
	provider  embedding.Provider
	engine    *Engine
	arbiter   *Arbiter
	centroids CentroidSource
	crops     ReferenceCropSource
	audit     AuditSink
}

// NewPipeline wires the recognition pipeline. The arbiter, crop source and
// audit sink may be nil; a nil arbiter makes every tie resolve to not_sure.
func NewPipeline(provider embedding.Provider, engine *Engine, arbiter *Arbiter, centroids CentroidSource, crops ReferenceCropSource, audit AuditSink) *Pipeline {
	return &Pipeline{
		provider:  provider,
		engine:    engine,
		arbiter:   arbiter,
		centroids: centroids,
		crops:     crops,
		audit:     audit,
	}
}

// Recognize processes a single captured frame for a patient and returns the
// outcome. Errors are reserved for infrastructure failures (storage,
// embedding provider, dimension mismatch); every uncertainty path returns a
// valid outcome instead.
func (p *Pipeline) Recognize(ctx context.Context, patientID string, frame []byte) (Outcome, error) {
	started := time.Now()

	centroids, err := p.centroids.CentroidsForPatient(ctx, patientID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load centroids for patient %s: %w", patientID, err)
	}

	faces, err := p.provider.DetectFaces(ctx, frame)
	if err != nil {
		return Outcome{}, fmt.Errorf("face detection failed: %w", err)
	}

	face := embedding.PrimaryFace(faces)
	if face == nil {
		outcome := notSureOutcome()
		p.record(patientID, outcome, false, started)
		return outcome, nil
	}

	outcome, err := p.engine.Match(face.Embedding, centroids)
	if err != nil {
		return Outcome{}, err
	}

	if outcome.UsedTieBreak {
		outcome = p.arbitrate(ctx, frame, outcome)
	}

	p.record(patientID, outcome, true, started)
	return outcome, nil
}

// arbitrate hands a tied outcome to the arbiter and finalizes the status.
// A winner upgrades the outcome to identified; an abstention downgrades it
// to not_sure. The candidate list and score are kept either way.
func (p *Pipeline) arbitrate(ctx context.Context, frame []byte, outcome Outcome) Outcome {
	if p.arbiter == nil {
		outcome.Status = StatusNotSure
		return outcome
	}

	first := p.tieCandidate(ctx, outcome.Candidates[0])
	second := p.tieCandidate(ctx, outcome.Candidates[1])

	winnerID := p.arbiter.ResolveTie(ctx, frame, first, second)
	if winnerID == "" {
		outcome.Status = StatusNotSure
		return outcome
	}

	outcome.Status = StatusIdentified
	outcome.WinnerPersonID = winnerID
	for _, c := range outcome.Candidates {
		if c.PersonID == winnerID {
			outcome.WinnerName = c.Name
			break
		}
	}
	return outcome
}

func (p *Pipeline) tieCandidate(ctx context.Context, c Candidate) TieCandidate {
	tc := TieCandidate{PersonID: c.PersonID, Name: c.Name}
	if p.crops == nil {
		return tc
	}
	crops, err := p.crops.ReferenceCrops(ctx, c.PersonID)
	if err != nil {
		// The judge can still rule on names and the live frame alone.
		log.Printf("failed to load reference crops for %s: %v", c.PersonID, err)
		return tc
	}
	tc.ReferenceCrops = crops
	return tc
}

func (p *Pipeline) record(patientID string, outcome Outcome, faceDetected bool, started time.Time) {
	if p.audit == nil {
		return
	}
	p.audit.RecordRecognition(Event{
		PatientID:       patientID,
		Status:          outcome.Status,
		WinnerPersonID:  outcome.WinnerPersonID,
		ConfidenceScore: outcome.ConfidenceScore,
		ConfidenceBand:  outcome.ConfidenceBand,
		FaceDetected:    faceDetected,
		UsedTieBreak:    outcome.UsedTieBreak,
		Candidates:      outcome.Candidates,
		Elapsed:         time.Since(started),
	})
}
