package workflow

import "time"

// Config carries the tuning knobs of the refinement loop. The limits live
// here rather than at call sites so policy can change without touching
// control flow.
type Config struct {
	// AutoRefineLimit bounds consecutive automated refine cycles before
	// an unresolved FAIL escalates to the human gate.
	AutoRefineLimit int
	// HardCeiling bounds total Evaluate passes over a session's lifetime;
	// reaching it forces manual resolution.
	HardCeiling int
	// PassThreshold is the overall score at or above which a critique
	// counts as PASS when the critic's own decision field is unusable.
	PassThreshold float64
	// AutoApproveScore, when positive, approves the pitch automatically
	// at gate entry if the critique score meets it. Zero disables.
	AutoApproveScore float64
	// StageTimeout bounds each external call; expiry behaves like a
	// generation failure with no partial state mutation.
	StageTimeout time.Duration
	// TemplateKind selects the pitch template embedded in the context
	// prompt; unknown kinds fall back to "elevator".
	TemplateKind string
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		AutoRefineLimit: 3,
		HardCeiling:     10,
		PassThreshold:   7.5,
		StageTimeout:    2 * time.Minute,
		TemplateKind:    "elevator",
	}
}
