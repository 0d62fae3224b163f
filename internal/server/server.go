// Package server exposes the step-wise HTTP deployment mode: one endpoint
// per gate interaction, with session state held between requests.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vardan201/pitchagent/internal/llm"
	"github.com/vardan201/pitchagent/internal/session"
	"github.com/vardan201/pitchagent/internal/workflow"
)

type Server struct {
	machine  *workflow.Machine
	sessions *session.Store
	log      *slog.Logger
}

// New creates a server around a shared machine. logger may be nil.
func New(machine *workflow.Machine, sessions *session.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{machine: machine, sessions: sessions, log: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/pitch/start", s.handleStart)
	mux.HandleFunc("POST /api/pitch/approve/{id}", s.handleApprove)
	mux.HandleFunc("GET /api/pitch/status/{id}", s.handleStatus)
	mux.HandleFunc("GET /api/pitch/final/{id}", s.handleFinal)
	mux.HandleFunc("DELETE /api/pitch/session/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type startReq struct {
	MVPDescription string `json:"mvp_description"`
}

type gateReq struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

type stateResp struct {
	SessionID string          `json:"session_id"`
	State     *workflow.State `json:"state"`
}

type errorResp struct {
	Error  string          `json:"error"`
	Status workflow.Status `json:"status,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}
	if strings.TrimSpace(req.MVPDescription) == "" {
		writeError(w, http.StatusBadRequest, errors.New("mvp_description is required"), "")
		return
	}

	sess := s.sessions.Create(req.MVPDescription)
	sess.Lock()
	defer sess.Unlock()

	if err := s.machine.Start(r.Context(), sess.State); err != nil {
		// A failed start leaves the session mid-pipeline with no endpoint
		// able to advance it, so it is discarded; the client retries with
		// a fresh start.
		_ = s.sessions.Delete(sess.ID)
		s.writeMachineError(w, sess.State, err)
		return
	}
	if err := s.sessions.Update(sess.ID, sess.State); err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stateResp{SessionID: sess.ID, State: sess.State})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}
	var req gateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if req.Approved {
		err = s.machine.Approve(r.Context(), sess.State, req.Feedback)
	} else {
		err = s.machine.Reject(r.Context(), sess.State, req.Feedback)
	}
	if err != nil {
		s.writeMachineError(w, sess.State, err)
		return
	}
	if err := s.sessions.Update(sess.ID, sess.State); err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stateResp{SessionID: sess.ID, State: sess.State})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}

	sess.Lock()
	defer sess.Unlock()
	writeJSON(w, http.StatusOK, stateResp{SessionID: sess.ID, State: sess.State})
}

func (s *Server) handleFinal(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.State.Status != workflow.StatusCompleted || sess.State.FinalPackage == nil {
		writeError(w, http.StatusBadRequest,
			errors.New("final package not available yet"), sess.State.Status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":       sess.ID,
		"final_package":    sess.State.FinalPackage,
		"total_iterations": sess.State.TotalIterations,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "result": "deleted"})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.sessions.List()})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "pitchagent",
		"endpoints": map[string]string{
			"POST /api/pitch/start":          "start a session from an MVP description",
			"POST /api/pitch/approve/{id}":   "approve or reject the pitch at the gate",
			"GET /api/pitch/status/{id}":     "current session state",
			"GET /api/pitch/final/{id}":      "final package of a completed session",
			"DELETE /api/pitch/session/{id}": "discard a session",
			"GET /api/sessions":              "list live sessions",
		},
	})
}

// --- Helpers ---

// writeMachineError maps workflow errors onto HTTP statuses: precondition
// failures are the client's fault, generation failures are the upstream
// provider's.
func (s *Server) writeMachineError(w http.ResponseWriter, st *workflow.State, err error) {
	var perr *workflow.PreconditionError
	var gerr *llm.GenerationError
	switch {
	case errors.As(err, &perr):
		writeError(w, http.StatusBadRequest, err, st.Status)
	case errors.As(err, &gerr):
		s.log.Error("generation failed", "request_id", st.RequestID, "error", err)
		writeError(w, http.StatusBadGateway, err, st.Status)
	default:
		s.log.Error("request failed", "request_id", st.RequestID, "error", err)
		writeError(w, http.StatusInternalServerError, err, st.Status)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error, status workflow.Status) {
	writeJSON(w, code, errorResp{Error: err.Error(), Status: status})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
