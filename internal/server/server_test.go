package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vardan201/pitchagent/internal/llm"
	"github.com/vardan201/pitchagent/internal/session"
	"github.com/vardan201/pitchagent/internal/workflow"
)

// scriptedLLM answers each stage by its system prompt. The critic verdict
// and an injectable failure are the only knobs the handlers need.
type scriptedLLM struct {
	critique string
	fail     bool
}

func (f *scriptedLLM) Complete(_ context.Context, systemPrompt, _ string) (string, error) {
	if f.fail {
		return "", &llm.GenerationError{Provider: "fake", Err: errors.New("upstream down")}
	}
	switch {
	case strings.Contains(systemPrompt, "research expert"):
		return "market context", nil
	case strings.Contains(systemPrompt, "pitch writer"):
		return "initial pitch", nil
	case strings.Contains(systemPrompt, "pitch critic"):
		return f.critique, nil
	case strings.Contains(systemPrompt, "refinement expert"):
		return "refined pitch", nil
	case strings.Contains(systemPrompt, "pitch coach"):
		return `{"elevator_pitch":"short","executive_summary":"sum"}`, nil
	}
	return "", errors.New("unrecognized system prompt")
}

type staticSearcher struct{}

func (staticSearcher) Search(context.Context, string) string { return "search results" }

func newTestServer(t *testing.T, client llm.Client) (*httptest.Server, *session.Store) {
	t.Helper()
	cfg := workflow.DefaultConfig()
	stages := workflow.NewStages(client, staticSearcher{}, cfg, nil)
	machine := workflow.NewMachine(stages, cfg, nil, nil)
	sessions := session.NewStore()

	ts := httptest.NewServer(New(machine, sessions, nil).Routes())
	t.Cleanup(ts.Close)
	return ts, sessions
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeState(t *testing.T, resp *http.Response) stateResp {
	t.Helper()
	defer resp.Body.Close()
	var out stateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

const passCritique = `{"scores":{"clarity":8},"overall_score":8.0,"decision":"PASS","feedback":"good"}`

func TestServer_StartReachesGate(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	resp := postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	out := decodeState(t, resp)
	if out.SessionID == "" {
		t.Error("expected a session ID")
	}
	if out.State.Status != workflow.StatusAwaitingApproval {
		t.Errorf("status = %q, want awaiting_approval", out.State.Status)
	}
	if out.State.Pitch == "" {
		t.Error("expected a pitch in the response")
	}
}

func TestServer_StartRejectsEmptyDescription(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	resp := postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "   "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", resp.StatusCode)
	}
}

func TestServer_ApproveDeliversFinal(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	started := decodeState(t, postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"}))

	// The final package is refused before approval.
	pre, err := http.Get(ts.URL + "/api/pitch/final/" + started.SessionID)
	if err != nil {
		t.Fatalf("get final: %v", err)
	}
	pre.Body.Close()
	if pre.StatusCode != http.StatusBadRequest {
		t.Errorf("final before approval = %d, want 400", pre.StatusCode)
	}

	approved := decodeState(t, postJSON(t, ts.URL+"/api/pitch/approve/"+started.SessionID, gateReq{Approved: true}))
	if approved.State.Status != workflow.StatusCompleted {
		t.Fatalf("status = %q, want completed", approved.State.Status)
	}

	final, err := http.Get(ts.URL + "/api/pitch/final/" + started.SessionID)
	if err != nil {
		t.Fatalf("get final: %v", err)
	}
	defer final.Body.Close()
	if final.StatusCode != http.StatusOK {
		t.Fatalf("final status code = %d, want 200", final.StatusCode)
	}
	var payload struct {
		FinalPackage struct {
			ElevatorPitch string `json:"elevator_pitch"`
		} `json:"final_package"`
	}
	if err := json.NewDecoder(final.Body).Decode(&payload); err != nil {
		t.Fatalf("decode final: %v", err)
	}
	if payload.FinalPackage.ElevatorPitch != "short" {
		t.Errorf("elevator pitch = %q, want %q", payload.FinalPackage.ElevatorPitch, "short")
	}
}

func TestServer_RejectReentersLoop(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	started := decodeState(t, postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"}))

	rejected := decodeState(t, postJSON(t, ts.URL+"/api/pitch/approve/"+started.SessionID,
		gateReq{Approved: false, Feedback: "add traction numbers"}))
	if rejected.State.Status != workflow.StatusAwaitingApproval {
		t.Errorf("status = %q, want awaiting_approval after re-evaluation", rejected.State.Status)
	}
	if rejected.State.TotalIterations != 2 {
		t.Errorf("total iterations = %d, want 2", rejected.State.TotalIterations)
	}
	if rejected.State.HumanFeedback != "add traction numbers" {
		t.Errorf("human feedback = %q, want the rejection feedback", rejected.State.HumanFeedback)
	}
}

func TestServer_ApproveWrongStateIsBadRequest(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	started := decodeState(t, postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"}))
	_ = decodeState(t, postJSON(t, ts.URL+"/api/pitch/approve/"+started.SessionID, gateReq{Approved: true}))

	// Rejecting a completed session fails with the session's status echoed.
	resp := postJSON(t, ts.URL+"/api/pitch/approve/"+started.SessionID, gateReq{Approved: false})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", resp.StatusCode)
	}
	var errOut errorResp
	if err := json.NewDecoder(resp.Body).Decode(&errOut); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errOut.Status != workflow.StatusCompleted {
		t.Errorf("echoed status = %q, want completed", errOut.Status)
	}
}

func TestServer_UnknownSessionIs404(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	for _, req := range []func() (*http.Response, error){
		func() (*http.Response, error) { return http.Get(ts.URL + "/api/pitch/status/nope") },
		func() (*http.Response, error) { return http.Get(ts.URL + "/api/pitch/final/nope") },
		func() (*http.Response, error) {
			return postJSON(t, ts.URL+"/api/pitch/approve/nope", gateReq{Approved: true}), nil
		},
	} {
		resp, err := req()
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status code = %d, want 404", resp.StatusCode)
		}
	}
}

func TestServer_GenerationFailureIsBadGateway(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{fail: true})

	resp := postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status code = %d, want 502", resp.StatusCode)
	}
}

func TestServer_StartFailureDiscardsSession(t *testing.T) {
	client := &scriptedLLM{fail: true}
	ts, sessions := newTestServer(t, client)

	resp := postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status code = %d, want 502", resp.StatusCode)
	}

	// The stuck session is gone, not parked in a status no endpoint can
	// advance.
	if n := sessions.Len(); n != 0 {
		t.Errorf("live sessions = %d, want 0 after failed start", n)
	}

	// A retry once the provider recovers starts clean.
	client.fail = false
	retry := decodeState(t, postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"}))
	if retry.State.Status != workflow.StatusAwaitingApproval {
		t.Errorf("retry status = %q, want awaiting_approval", retry.State.Status)
	}
}

func TestServer_DeleteAndList(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	started := decodeState(t, postJSON(t, ts.URL+"/api/pitch/start", startReq{MVPDescription: "an MVP"}))

	list, err := http.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var listing struct {
		Sessions []session.Summary `json:"sessions"`
	}
	if err := json.NewDecoder(list.Body).Decode(&listing); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	list.Body.Close()
	if len(listing.Sessions) != 1 || listing.Sessions[0].ID != started.SessionID {
		t.Fatalf("unexpected listing: %+v", listing.Sessions)
	}

	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/pitch/session/%s", ts.URL, started.SessionID), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Errorf("delete status code = %d, want 200", del.StatusCode)
	}

	status, err := http.Get(ts.URL + "/api/pitch/status/" + started.SessionID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	status.Body.Close()
	if status.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", status.StatusCode)
	}
}

func TestServer_IndexListsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, &scriptedLLM{critique: passCritique})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Service   string            `json:"service"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Service != "pitchagent" || len(out.Endpoints) == 0 {
		t.Errorf("unexpected index payload: %+v", out)
	}
}
