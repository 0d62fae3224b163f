package workflow

import "github.com/vardan201/pitchagent/internal/review"

// Verdict is the iteration guard's routing decision after an Evaluate pass.
type Verdict int

const (
	// ContinueRefine routes into another automated refine cycle.
	ContinueRefine Verdict = iota
	// GoToGate escalates to the human approval gate.
	GoToGate
	// HardStop terminates the loop for manual resolution.
	HardStop
)

func (v Verdict) String() string {
	switch v {
	case ContinueRefine:
		return "continue_refine"
	case GoToGate:
		return "go_to_gate"
	case HardStop:
		return "hard_stop"
	}
	return "unknown"
}

// Decide applies the bounded-iteration policy. The hard ceiling dominates
// everything: once total iterations reach it, the loop must stop no matter
// what the critic said. A PASS goes to the gate; a FAIL goes to the gate
// once the auto-refine budget is spent, otherwise refinement continues.
func (c Config) Decide(autoRefineCount, totalIterations int, decision string) Verdict {
	switch {
	case totalIterations >= c.HardCeiling:
		return HardStop
	case decision == review.DecisionPass:
		return GoToGate
	case autoRefineCount >= c.AutoRefineLimit:
		return GoToGate
	default:
		return ContinueRefine
	}
}
