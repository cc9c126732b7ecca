package recognition

import (
	"fmt"
	"sort"

	"github.com/kozaktomas/recall/internal/config"
)

// Engine scores a query embedding against enrolled centroids and assigns a
// confidence band. It performs no I/O, holds no mutable state, and is safe
// for concurrent use; every threshold comes from the shared config struct.
type Engine struct {
	cfg *config.RecognitionConfig
}

// NewEngine creates a matching engine using the given thresholds.
func NewEngine(cfg *config.RecognitionConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Match scores the query against every centroid and decides the outcome.
//
// When the top two candidates are closer than the tie threshold (and the band
// is not low), Match sets UsedTieBreak and leaves the winner unset; the final
// status is then owned by the tie-break arbiter, not by Match. Until the
// arbiter rules, the outcome carries the conservative needs_confirmation
// status so an unarbitrated tie can never auto-announce.
//
// An empty query or an empty candidate set is not an error: both yield a
// not_sure outcome. A dimension mismatch is an error.
func (e *Engine) Match(query []float32, candidates []Centroid) (Outcome, error) {
	if len(query) == 0 || len(candidates) == 0 {
		return notSureOutcome(), nil
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return Outcome{}, fmt.Errorf("%w: query has %d dimensions, centroid for %s has %d",
				ErrDimensionMismatch, len(query), c.PersonID, len(c.Vector))
		}
		scored = append(scored, Candidate{
			PersonID: c.PersonID,
			Name:     c.Name,
			Score:    Score(query, c.Vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].PersonID < scored[j].PersonID
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}

	top1 := scored[0].Score
	top2 := 0.0
	if len(scored) > 1 {
		top2 = scored[1].Score
	}

	band := e.band(top1)

	reported := scored
	if e.cfg.TopK > 0 && len(reported) > e.cfg.TopK {
		reported = reported[:e.cfg.TopK]
	}

	outcome := Outcome{
		ConfidenceScore: top1,
		ConfidenceBand:  band,
		Candidates:      reported,
	}

	// Tie detection always looks at the true top two, regardless of TopK.
	if len(scored) > 1 && band != BandLow && top1-top2 < e.cfg.TieThreshold {
		// A tie-break needs both contenders, even when TopK caps the report.
		if len(outcome.Candidates) < 2 {
			outcome.Candidates = scored[:2]
		}
		outcome.UsedTieBreak = true
		outcome.Status = StatusNeedsConfirmation
		return outcome, nil
	}

	switch band {
	case BandHigh:
		outcome.Status = StatusIdentified
		outcome.WinnerPersonID = scored[0].PersonID
		outcome.WinnerName = scored[0].Name
	case BandMedium:
		outcome.Status = StatusNeedsConfirmation
	default:
		outcome.Status = StatusNotSure
	}

	return outcome, nil
}

func (e *Engine) band(score float64) Band {
	switch {
	case score >= e.cfg.HighThreshold:
		return BandHigh
	case score >= e.cfg.MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

func notSureOutcome() Outcome {
	return Outcome{
		Status:          StatusNotSure,
		ConfidenceScore: 0,
		ConfidenceBand:  BandLow,
		Candidates:      []Candidate{},
	}
}
