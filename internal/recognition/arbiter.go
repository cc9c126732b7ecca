package recognition

import (
	"context"
	"log"
	"time"
)

// maxReferenceCrops bounds how many reference images per candidate are sent
// to the downstream judge. More crops cost more and have not improved
// separation in practice.
const maxReferenceCrops = 3

// TieCandidate is one of the two identities a tie-break must separate.
type TieCandidate struct {
	PersonID       string
	Name           string
	ReferenceCrops [][]byte // JPEG reference images, best first
}

// Judge compares the live frame against reference images for the two tied
// candidates and names a winner. Implementations return "a", "b", or "none";
// anything else is treated as an abstention by the arbiter.
type Judge interface {
	Name() string
	Pick(ctx context.Context, frame []byte, a, b TieCandidate) (string, error)
}

// Arbiter resolves near-ties between the top two candidates. It is the only
// recognition component allowed to call out to a remote capability, and it
// collapses every failure mode of that call (timeout, transport error,
// malformed answer) into a single abstention. An uncertain system must never
// force an identity onto the user, so abstain is always the safe verdict.
type Arbiter struct {
	judge   Judge
	timeout time.Duration
}

// NewArbiter creates a tie-break arbiter with the given judge and call budget.
func NewArbiter(judge Judge, timeout time.Duration) *Arbiter {
	return &Arbiter{judge: judge, timeout: timeout}
}

// ResolveTie asks the judge to separate exactly two candidates and returns
// the winning person ID, or "" to abstain. Candidate reference sets are
// truncated to maxReferenceCrops before the downstream call.
func (t *Arbiter) ResolveTie(ctx context.Context, frame []byte, a, b TieCandidate) string {
	if t.judge == nil {
		return ""
	}

	a.ReferenceCrops = truncateCrops(a.ReferenceCrops)
	b.ReferenceCrops = truncateCrops(b.ReferenceCrops)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	winner, err := t.judge.Pick(ctx, frame, a, b)
	if err != nil {
		log.Printf("tie-break judge %s failed, abstaining: %v", t.judge.Name(), err)
		return ""
	}

	switch winner {
	case "a":
		return a.PersonID
	case "b":
		return b.PersonID
	case "none":
		return ""
	default:
		log.Printf("tie-break judge %s returned unexpected verdict %q, abstaining", t.judge.Name(), winner)
		return ""
	}
}

func truncateCrops(crops [][]byte) [][]byte {
	if len(crops) > maxReferenceCrops {
		return crops[:maxReferenceCrops]
	}
	return crops
}
