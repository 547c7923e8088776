package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	orchestratorx "github.com/tanwarat/scribemesh/agent/agents/orchestrator"
	contractx "github.com/tanwarat/scribemesh/agent/contract"
	historyx "github.com/tanwarat/scribemesh/agent/history"
	intentx "github.com/tanwarat/scribemesh/agent/intent"
	invokex "github.com/tanwarat/scribemesh/agent/invoke"
	normalizex "github.com/tanwarat/scribemesh/agent/normalize"
	registryx "github.com/tanwarat/scribemesh/agent/registry"
	"github.com/tanwarat/scribemesh/toolservice"
)

const testTranscript = "Alice opened the planning meeting. Alice will send the report by Friday. " +
	"Bob must review the budget before the next sync. The roadmap was approved."

type memoryHistory struct {
	records []historyx.Record
}

func (m *memoryHistory) Append(_ context.Context, rec historyx.Record) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) Recent(_ context.Context, limit int) ([]historyx.Record, error) {
	if limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]historyx.Record, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func newToolService(t *testing.T, agent string) *httptest.Server {
	t.Helper()
	svc, err := toolservice.New(toolservice.Config{Agent: agent}, nil)
	if err != nil {
		t.Fatalf("toolservice.New() error = %v", err)
	}
	server := httptest.NewServer(svc.Handler())
	t.Cleanup(server.Close)
	return server
}

// newStack wires real tool services, registry, orchestrator and server
// together, exercising the full path a deployment takes.
func newStack(t *testing.T, services []string, history historyx.Store) *httptest.Server {
	t.Helper()

	reg, err := registryx.New(registryx.Config{Services: services})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	orch, err := orchestratorx.New(reg, intentx.Default(), invokex.New(invokex.Config{}), normalizex.New(), history)
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	srv, err := New(Config{}, orch, reg, history)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	public := httptest.NewServer(srv.Handler())
	t.Cleanup(public.Close)
	return public
}

func postAsk(t *testing.T, serverURL string, payload string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(serverURL+"/ask", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, body
}

func askBody(t *testing.T, transcript string, prompt string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"transcript": transcript, "prompt": prompt})
	if err != nil {
		t.Fatalf("marshal ask body: %v", err)
	}
	return string(payload)
}

func TestAskExtractsTasksEndToEnd(t *testing.T) {
	t.Parallel()

	summarizer := newToolService(t, "summarizer")
	extractor := newToolService(t, "task-extractor")
	history := &memoryHistory{}
	public := newStack(t, []string{summarizer.URL, extractor.URL}, history)

	resp, err := http.Post(public.URL+"/ask", "application/json", strings.NewReader(askBody(t, testTranscript, "extract the action items")))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var envelope contractx.AnalysisEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	if envelope.Type != contractx.EnvelopeTasks {
		t.Fatalf("unexpected envelope type: %s", envelope.Type)
	}
	if len(envelope.Content.Items) != 2 {
		t.Fatalf("unexpected items: %#v", envelope.Content.Items)
	}
	if !strings.Contains(envelope.Content.Items[0], "Friday") {
		t.Fatalf("unexpected first item: %q", envelope.Content.Items[0])
	}
	if envelope.Metadata.ToolUsed != contractx.ToolTasks {
		t.Fatalf("unexpected tool: %s", envelope.Metadata.ToolUsed)
	}
	if len(history.records) == 0 {
		t.Fatal("expected history records")
	}
}

func TestAskSummarizesByDefault(t *testing.T) {
	t.Parallel()

	summarizer := newToolService(t, "summarizer")
	public := newStack(t, []string{summarizer.URL}, nil)

	resp, err := http.Post(public.URL+"/ask", "application/json", strings.NewReader(askBody(t, testTranscript, "what happened in this meeting?")))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var envelope contractx.AnalysisEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Type != contractx.EnvelopeSummary {
		t.Fatalf("unexpected envelope type: %s", envelope.Type)
	}
	if !strings.Contains(envelope.Content.Text, "Alice opened the planning meeting") {
		t.Fatalf("unexpected summary: %q", envelope.Content.Text)
	}
}

func TestAskUnreachableServiceAnswersErrorEnvelope(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()
	public := newStack(t, []string{dead.URL}, nil)

	resp, err := http.Post(public.URL+"/ask", "application/json", strings.NewReader(askBody(t, testTranscript, "summarize this")))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tool failures must answer 200, got %d", resp.StatusCode)
	}

	var envelope contractx.AnalysisEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Type != contractx.EnvelopeError {
		t.Fatalf("unexpected envelope type: %s", envelope.Type)
	}
	if !strings.Contains(envelope.Content.Text, string(contractx.FailureNotFound)) &&
		!strings.Contains(envelope.Content.Text, string(contractx.FailureUnreachable)) {
		t.Fatalf("error content must carry a failure kind: %q", envelope.Content.Text)
	}
}

func TestAskRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	summarizer := newToolService(t, "summarizer")
	public := newStack(t, []string{summarizer.URL}, nil)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"short transcript", askBody(t, "short", "summarize")},
		{"empty transcript", askBody(t, "", "summarize")},
		{"empty prompt", askBody(t, testTranscript, "")},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resp, body := postAsk(t, public.URL, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("unexpected status: %d", resp.StatusCode)
			}
			if _, ok := body["error"]; !ok {
				t.Fatalf("expected error body, got %#v", body)
			}
		})
	}
}

func TestHealthAndToolsEndpoints(t *testing.T) {
	t.Parallel()

	summarizer := newToolService(t, "summarizer")
	extractor := newToolService(t, "task-extractor")
	public := newStack(t, []string{summarizer.URL, extractor.URL}, nil)

	// Warm the registry through a real request.
	resp, err := http.Post(public.URL+"/ask", "application/json", strings.NewReader(askBody(t, testTranscript, "summarize")))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(public.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" || health["agent"] != "orchestrator" {
		t.Fatalf("unexpected health: %#v", health)
	}
	if health["tools_registered"] != "3" {
		t.Fatalf("unexpected tool count: %s", health["tools_registered"])
	}

	resp, err = http.Get(public.URL + "/tools")
	if err != nil {
		t.Fatalf("get tools: %v", err)
	}
	defer resp.Body.Close()
	var tools struct {
		Tools []contractx.ToolDescriptor `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tools); err != nil {
		t.Fatalf("decode tools: %v", err)
	}
	if len(tools.Tools) != 3 {
		t.Fatalf("unexpected tools: %#v", tools.Tools)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	summarizer := newToolService(t, "summarizer")
	history := &memoryHistory{}
	public := newStack(t, []string{summarizer.URL}, history)

	resp, err := http.Post(public.URL+"/ask", "application/json", strings.NewReader(askBody(t, testTranscript, "summarize")))
	if err != nil {
		t.Fatalf("post ask: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(public.URL + "/history?limit=5")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body struct {
		History []historyx.Record `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(body.History) != 1 || body.History[0].EnvelopeType != string(contractx.EnvelopeSummary) {
		t.Fatalf("unexpected history: %#v", body.History)
	}

	resp, err = http.Get(public.URL + "/history?limit=zero")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
