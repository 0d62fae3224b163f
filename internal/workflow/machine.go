package workflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/vardan201/pitchagent/internal/review"
)

// Recorder archives the loop's progress. Recording is best-effort: failures
// are logged and never fail a stage.
type Recorder interface {
	SaveIteration(ctx context.Context, requestID string, iteration int, pitch string, crit review.Critique) error
	SaveFinal(ctx context.Context, requestID string, pkg review.FinalPackage, totalIterations int) error
}

// Machine drives a State through the refinement loop. The same machine
// backs both deployment modes: the run-to-completion CLI calls Start and
// then Approve/Reject in a blocking prompt loop, the step-wise HTTP driver
// calls them across separate requests. Callers must not invoke methods
// concurrently for the same State.
type Machine struct {
	stages *Stages
	cfg    Config
	rec    Recorder
	log    *slog.Logger
}

// NewMachine creates a machine. rec may be nil to disable archiving;
// logger may be nil to discard logs.
func NewMachine(stages *Stages, cfg Config, rec Recorder, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = nopLogger()
	}
	return &Machine{stages: stages, cfg: cfg, rec: rec, log: logger}
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Start runs Contextualize and Draft, then the critique loop, leaving the
// state at awaiting_approval or max_iterations_reached (or mid-pipeline if
// a generation call failed, so the caller may retry Start semantics via a
// fresh session).
func (m *Machine) Start(ctx context.Context, st *State) error {
	if st.Status != StatusInitialized {
		return &PreconditionError{Op: "start", Status: st.Status}
	}

	m.log.Info("gathering context", "request_id", st.RequestID)
	if err := m.stages.Contextualize(ctx, st); err != nil {
		return err
	}
	st.Status = StatusContextGathered

	m.log.Info("generating pitch", "request_id", st.RequestID)
	if err := m.stages.Draft(ctx, st); err != nil {
		return err
	}
	st.Status = StatusPitchGenerated

	return m.critiqueLoop(ctx, st)
}

// Approve packages the current pitch and completes the session. Valid at
// the gate, at the iteration ceiling (the only escape besides a new
// session), and after a failed packaging attempt.
func (m *Machine) Approve(ctx context.Context, st *State, feedback string) error {
	switch st.Status {
	case StatusAwaitingApproval, StatusMaxIterations, StatusApproved:
	default:
		return &PreconditionError{Op: "approve", Status: st.Status}
	}

	st.GateDecision = GateApproved
	st.HumanFeedback = feedback
	st.Status = StatusApproved

	m.log.Info("pitch approved, packaging", "request_id", st.RequestID, "total_iterations", st.TotalIterations)
	if err := m.stages.Package(ctx, st, feedback); err != nil {
		return err
	}
	st.Status = StatusCompleted
	m.recordFinal(ctx, st)
	return nil
}

// Reject refines the pitch with the human's feedback, resets the automated
// refine budget, and re-enters the critique loop. At or over the hard
// ceiling it transitions to max_iterations_reached instead; once there,
// further rejects are precondition errors.
func (m *Machine) Reject(ctx context.Context, st *State, feedback string) error {
	if st.Status != StatusAwaitingApproval {
		perr := &PreconditionError{Op: "reject", Status: st.Status}
		if st.Status == StatusMaxIterations {
			perr.Hint = "iteration ceiling reached; approve the current pitch or start a new session"
		}
		return perr
	}

	if st.TotalIterations >= m.cfg.HardCeiling {
		st.GateDecision = GateRejected
		st.HumanFeedback = feedback
		st.Status = StatusMaxIterations
		m.log.Info("iteration ceiling reached at gate", "request_id", st.RequestID, "total_iterations", st.TotalIterations)
		return nil
	}

	m.log.Info("pitch rejected, refining with feedback", "request_id", st.RequestID)
	if err := m.stages.Refine(ctx, st, feedback); err != nil {
		return err
	}
	st.GateDecision = GateRejected
	st.HumanFeedback = feedback
	st.AutoRefineCount = 0
	st.Status = StatusRefining

	return m.critiqueLoop(ctx, st)
}

// critiqueLoop alternates Evaluate and Refine until the guard routes to
// the gate or hard-stops.
func (m *Machine) critiqueLoop(ctx context.Context, st *State) error {
	for {
		if err := m.stages.Evaluate(ctx, st); err != nil {
			return err
		}
		st.Status = StatusCritiqued
		m.recordIteration(ctx, st)

		verdict := m.cfg.Decide(st.AutoRefineCount, st.TotalIterations, st.Critique.Decision)
		m.log.Info("critique complete",
			"request_id", st.RequestID,
			"iteration", st.TotalIterations,
			"score", st.Critique.OverallScore,
			"decision", st.Critique.Decision,
			"verdict", verdict.String())

		switch verdict {
		case HardStop:
			st.Status = StatusMaxIterations
			return nil
		case GoToGate:
			return m.enterGate(ctx, st)
		}

		st.Status = StatusRefining
		if err := m.stages.Refine(ctx, st, ""); err != nil {
			return err
		}
		st.AutoRefineCount++
	}
}

func (m *Machine) enterGate(ctx context.Context, st *State) error {
	st.GateDecision = GatePending
	st.Status = StatusAwaitingApproval

	if m.cfg.AutoApproveScore > 0 && st.Critique.OverallScore >= m.cfg.AutoApproveScore {
		m.log.Info("auto-approving above score threshold",
			"request_id", st.RequestID, "score", st.Critique.OverallScore)
		return m.Approve(ctx, st, "auto-approved above score threshold")
	}
	return nil
}

func (m *Machine) recordIteration(ctx context.Context, st *State) {
	if m.rec == nil {
		return
	}
	if err := m.rec.SaveIteration(ctx, st.RequestID, st.TotalIterations, st.Pitch, st.Critique); err != nil {
		m.log.Warn("failed to archive iteration", "request_id", st.RequestID, "error", err)
	}
}

func (m *Machine) recordFinal(ctx context.Context, st *State) {
	if m.rec == nil || st.FinalPackage == nil {
		return
	}
	if err := m.rec.SaveFinal(ctx, st.RequestID, *st.FinalPackage, st.TotalIterations); err != nil {
		m.log.Warn("failed to archive final package", "request_id", st.RequestID, "error", err)
	}
}
