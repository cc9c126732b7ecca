package recognition

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kozaktomas/recall/internal/config"
)

func testRecognitionConfig() *config.RecognitionConfig {
	return &config.RecognitionConfig{
		TopK:            5,
		HighThreshold:   0.85,
		MediumThreshold: 0.60,
		TieThreshold:    0.08,
		TieBreakTimeout: 2500,
	}
}

// queryVector is the fixed query used by the engine tests. Centroids built
// with centroidWithScore score exactly the requested value against it.
func queryVector() []float32 {
	return []float32{1, 0}
}

// centroidWithScore builds a unit vector whose Score against queryVector()
// is the given value.
func centroidWithScore(score float64) []float32 {
	cos := 2*score - 1
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func TestMatchIdentified(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())

	outcome, err := engine.Match(queryVector(), []Centroid{
		{PersonID: "alice", Name: "Alice", Vector: centroidWithScore(0.92)},
		{PersonID: "bob", Name: "Bob", Vector: centroidWithScore(0.40)},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if outcome.Status != StatusIdentified {
		t.Errorf("status = %q; want %q", outcome.Status, StatusIdentified)
	}
	if outcome.WinnerPersonID != "alice" || outcome.WinnerName != "Alice" {
		t.Errorf("winner = %q/%q; want alice/Alice", outcome.WinnerPersonID, outcome.WinnerName)
	}
	if outcome.ConfidenceBand != BandHigh {
		t.Errorf("band = %q; want %q", outcome.ConfidenceBand, BandHigh)
	}
	if math.Abs(outcome.ConfidenceScore-0.92) > 1e-6 {
		t.Errorf("score = %f; want 0.92", outcome.ConfidenceScore)
	}
	if outcome.UsedTieBreak {
		t.Error("expected no tie-break for a clear winner")
	}
	if len(outcome.Candidates) != 2 || outcome.Candidates[0].Rank != 1 || outcome.Candidates[1].Rank != 2 {
		t.Errorf("unexpected candidates: %+v", outcome.Candidates)
	}
}

func TestMatchTieDefersToArbiter(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())

	outcome, err := engine.Match(queryVector(), []Centroid{
		{PersonID: "alice", Name: "Alice", Vector: centroidWithScore(0.70)},
		{PersonID: "bob", Name: "Bob", Vector: centroidWithScore(0.65)},
		{PersonID: "carol", Name: "Carol", Vector: centroidWithScore(0.30)},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if !outcome.UsedTieBreak {
		t.Fatal("expected tie-break for 0.70 vs 0.65")
	}
	if outcome.Status != StatusNeedsConfirmation {
		t.Errorf("status = %q; want provisional %q", outcome.Status, StatusNeedsConfirmation)
	}
	if outcome.WinnerPersonID != "" {
		t.Errorf("winner must stay unset until arbitration, got %q", outcome.WinnerPersonID)
	}
	if outcome.Candidates[0].PersonID != "alice" || outcome.Candidates[1].PersonID != "bob" {
		t.Errorf("tied pair = %q, %q; want alice, bob",
			outcome.Candidates[0].PersonID, outcome.Candidates[1].PersonID)
	}
}

func TestMatchBandsAndStatuses(t *testing.T) {
	tests := []struct {
		name           string
		score          float64
		expectedBand   Band
		expectedStatus Status
		winnerSet      bool
	}{
		{"high band identifies", 0.92, BandHigh, StatusIdentified, true},
		{"exactly at high threshold", 0.85, BandHigh, StatusIdentified, true},
		{"medium band asks for confirmation", 0.70, BandMedium, StatusNeedsConfirmation, false},
		{"low band abstains", 0.50, BandLow, StatusNotSure, false},
	}

	engine := NewEngine(testRecognitionConfig())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := engine.Match(queryVector(), []Centroid{
				{PersonID: "alice", Name: "Alice", Vector: centroidWithScore(tc.score)},
			})
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			if outcome.ConfidenceBand != tc.expectedBand {
				t.Errorf("band = %q; want %q", outcome.ConfidenceBand, tc.expectedBand)
			}
			if outcome.Status != tc.expectedStatus {
				t.Errorf("status = %q; want %q", outcome.Status, tc.expectedStatus)
			}
			if tc.winnerSet && outcome.WinnerPersonID != "alice" {
				t.Errorf("winner = %q; want alice", outcome.WinnerPersonID)
			}
			if !tc.winnerSet && outcome.WinnerPersonID != "" {
				t.Errorf("winner = %q; want unset", outcome.WinnerPersonID)
			}
		})
	}
}

func TestMatchLowBandSkipsTieBreak(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())

	// Scores close together but both under the medium threshold: the pair is
	// indistinguishable noise, not a tie worth arbitrating.
	outcome, err := engine.Match(queryVector(), []Centroid{
		{PersonID: "alice", Vector: centroidWithScore(0.55)},
		{PersonID: "bob", Vector: centroidWithScore(0.53)},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if outcome.UsedTieBreak {
		t.Error("low band must not trigger a tie-break")
	}
	if outcome.Status != StatusNotSure {
		t.Errorf("status = %q; want %q", outcome.Status, StatusNotSure)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())

	tests := []struct {
		name       string
		query      []float32
		candidates []Centroid
	}{
		{"no enrolled people", queryVector(), nil},
		{"empty query", nil, []Centroid{{PersonID: "alice", Vector: centroidWithScore(0.9)}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := engine.Match(tc.query, tc.candidates)
			if err != nil {
				t.Fatalf("Match failed: %v", err)
			}
			if outcome.Status != StatusNotSure {
				t.Errorf("status = %q; want %q", outcome.Status, StatusNotSure)
			}
			if outcome.ConfidenceBand != BandLow {
				t.Errorf("band = %q; want %q", outcome.ConfidenceBand, BandLow)
			}
			if len(outcome.Candidates) != 0 {
				t.Errorf("expected no candidates, got %+v", outcome.Candidates)
			}
		})
	}
}

func TestMatchDimensionMismatch(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())

	_, err := engine.Match(queryVector(), []Centroid{
		{PersonID: "alice", Vector: []float32{1, 0, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMatchDeterministic(t *testing.T) {
	engine := NewEngine(testRecognitionConfig())
	// Two candidates with the exact same vector: ordering must fall back to
	// person ID and stay stable across runs.
	candidates := []Centroid{
		{PersonID: "zoe", Name: "Zoe", Vector: centroidWithScore(0.75)},
		{PersonID: "ann", Name: "Ann", Vector: centroidWithScore(0.75)},
		{PersonID: "bob", Name: "Bob", Vector: centroidWithScore(0.40)},
	}

	first, err := engine.Match(queryVector(), candidates)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if first.Candidates[0].PersonID != "ann" {
		t.Errorf("equal scores must order by person ID, got %q first", first.Candidates[0].PersonID)
	}

	for i := 0; i < 20; i++ {
		again, err := engine.Match(queryVector(), candidates)
		if err != nil {
			t.Fatalf("Match failed on run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestMatchTopKCapsCandidates(t *testing.T) {
	cfg := testRecognitionConfig()
	cfg.TopK = 3
	engine := NewEngine(cfg)

	candidates := make([]Centroid, 0, 6)
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	scores := []float64{0.95, 0.80, 0.70, 0.55, 0.45, 0.35}
	for i, id := range ids {
		candidates = append(candidates, Centroid{PersonID: id, Vector: centroidWithScore(scores[i])})
	}

	outcome, err := engine.Match(queryVector(), candidates)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(outcome.Candidates) != 3 {
		t.Fatalf("expected 3 reported candidates, got %d", len(outcome.Candidates))
	}
	for i, c := range outcome.Candidates {
		if c.Rank != i+1 {
			t.Errorf("candidate %d has rank %d", i, c.Rank)
		}
	}
}

func TestMatchTieSurvivesTopKOne(t *testing.T) {
	cfg := testRecognitionConfig()
	cfg.TopK = 1
	engine := NewEngine(cfg)

	outcome, err := engine.Match(queryVector(), []Centroid{
		{PersonID: "alice", Vector: centroidWithScore(0.70)},
		{PersonID: "bob", Vector: centroidWithScore(0.66)},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if !outcome.UsedTieBreak {
		t.Fatal("expected tie-break")
	}
	if len(outcome.Candidates) != 2 {
		t.Errorf("a tie must report both contenders, got %d candidates", len(outcome.Candidates))
	}
}
