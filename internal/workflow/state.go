// Package workflow implements the pitch refinement state machine: five
// LLM-backed stages, a bounded iteration guard, and one Machine shared by
// the run-to-completion CLI driver and the step-wise HTTP driver.
package workflow

import "github.com/vardan201/pitchagent/internal/review"

// Status is the lifecycle tag of a pitch session.
type Status string

const (
	StatusInitialized      Status = "initialized"
	StatusContextGathered  Status = "context_gathered"
	StatusPitchGenerated   Status = "pitch_generated"
	StatusCritiqued        Status = "pitch_critiqued"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusRefining         Status = "refining"
	StatusApproved         Status = "approved"
	StatusCompleted        Status = "completed"
	StatusMaxIterations    Status = "max_iterations_reached"
)

// Terminal reports whether no further automatic transitions are possible.
// max_iterations_reached is terminal for the loop but can still be escaped
// by an explicit approval.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusMaxIterations
}

// GateDecision records the human verdict at the approval gate.
type GateDecision string

const (
	GatePending  GateDecision = "pending"
	GateApproved GateDecision = "approved"
	GateRejected GateDecision = "rejected"
)

// CritiqueRound is one entry of the critique history kept for score
// progression display and archiving.
type CritiqueRound struct {
	Iteration    int     `json:"iteration"`
	OverallScore float64 `json:"overall_score"`
	Decision     string  `json:"decision"`
}

// State is the unit threaded through the machine. MVPDescription is
// immutable after creation; every other field has exactly one stage or
// gate operation that writes it.
type State struct {
	RequestID      string `json:"request_id"`
	MVPDescription string `json:"mvp_description"`

	Context  string          `json:"context,omitempty"`
	Pitch    string          `json:"pitch,omitempty"`
	Critique review.Critique `json:"critique"`

	// AutoRefineCount counts consecutive automated refine cycles since
	// the last human interaction; Reject resets it to zero.
	AutoRefineCount int `json:"auto_refine_count"`
	// TotalIterations counts every Evaluate pass over the session's whole
	// lifetime and never decreases.
	TotalIterations int `json:"total_iterations"`

	GateDecision  GateDecision `json:"gate_decision"`
	HumanFeedback string       `json:"human_feedback,omitempty"`

	FinalPackage *review.FinalPackage `json:"final_package,omitempty"`
	Status       Status               `json:"status"`

	History []CritiqueRound `json:"history,omitempty"`
}

// NewState creates an initialized state for one MVP description.
func NewState(requestID, mvpDescription string) *State {
	return &State{
		RequestID:      requestID,
		MVPDescription: mvpDescription,
		GateDecision:   GatePending,
		Status:         StatusInitialized,
	}
}
