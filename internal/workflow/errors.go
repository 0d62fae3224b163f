package workflow

import "fmt"

// PreconditionError reports an operation attempted against a session in
// the wrong status, e.g. approving a session that is not at the gate.
type PreconditionError struct {
	Op     string
	Status Status
	Hint   string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("cannot %s in status %q", e.Op, e.Status)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}
