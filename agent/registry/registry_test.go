package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

func discoveryHandler(doc string, hits *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/mcp.json" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, doc)
	})
}

const summarizerDoc = `{
	"tools": [
		{"name": "summarize_transcript", "description": "Summarizes a transcript.",
		 "inputSchema": {"type": "object", "properties": {"transcript": {"type": "string"}}, "required": ["transcript"]}},
		{"name": "highlight_key_points", "description": "Extracts key points.",
		 "inputSchema": {"type": "object", "properties": {"transcript": {"type": "string"}}, "required": ["transcript"]}}
	],
	"resources": [],
	"capabilities": {"tools": {}}
}`

const taskDoc = `{
	"tools": [
		{"name": "extract_tasks", "description": "Finds actionable tasks.",
		 "inputSchema": {"type": "object", "properties": {"transcript": {"type": "string"}}, "required": ["transcript"]}}
	],
	"resources": [],
	"capabilities": {"tools": {}}
}`

func TestRefreshMergesServices(t *testing.T) {
	t.Parallel()

	summarizer := httptest.NewServer(discoveryHandler(summarizerDoc, nil))
	t.Cleanup(summarizer.Close)
	extractor := httptest.NewServer(discoveryHandler(taskDoc, nil))
	t.Cleanup(extractor.Close)

	reg, err := New(Config{Services: []string{summarizer.URL, extractor.URL}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	desc, err := reg.Resolve(context.Background(), contractx.ToolTasks)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if desc.Endpoint != extractor.URL {
		t.Fatalf("unexpected endpoint: %s", desc.Endpoint)
	}
	if len(desc.InputSchema.Required) != 1 || desc.InputSchema.Required[0] != "transcript" {
		t.Fatalf("unexpected schema: %#v", desc.InputSchema)
	}
	if got := len(reg.Snapshot()); got != 3 {
		t.Fatalf("expected 3 tools, got %d", got)
	}
}

func TestResolveMissTriggersExactlyOneRefresh(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(discoveryHandler(summarizerDoc, &hits))
	t.Cleanup(server.Close)

	reg, err := New(Config{Services: []string{server.URL}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	hits.Store(0)
	genBefore := reg.Generation()

	_, err = reg.Resolve(context.Background(), "no_such_tool")
	if !errors.Is(err, contractx.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly one discovery fetch, got %d", got)
	}
	if reg.Generation() != genBefore+1 {
		t.Fatalf("expected one generation bump, got %d -> %d", genBefore, reg.Generation())
	}
}

func TestRefreshUnreachableServiceIsNonFatal(t *testing.T) {
	t.Parallel()

	alive := httptest.NewServer(discoveryHandler(taskDoc, nil))
	t.Cleanup(alive.Close)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close() // connection refused from here on

	reg, err := New(Config{Services: []string{dead.URL, alive.URL}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = reg.Refresh(context.Background())
	if !errors.Is(err, contractx.ErrDiscovery) {
		t.Fatalf("expected ErrDiscovery, got %v", err)
	}

	// The reachable service's tools are still resolvable.
	if _, err := reg.Resolve(context.Background(), contractx.ToolTasks); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestRefreshReportsCollisions(t *testing.T) {
	t.Parallel()

	first := httptest.NewServer(discoveryHandler(taskDoc, nil))
	t.Cleanup(first.Close)
	second := httptest.NewServer(discoveryHandler(taskDoc, nil))
	t.Cleanup(second.Close)

	reg, err := New(Config{Services: []string{first.URL, second.URL}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = reg.Refresh(context.Background())
	if !errors.Is(err, contractx.ErrToolCollision) {
		t.Fatalf("expected ErrToolCollision, got %v", err)
	}

	// First discovered descriptor wins, not silently overwritten.
	desc, err := reg.Resolve(context.Background(), contractx.ToolTasks)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if desc.Endpoint != first.URL {
		t.Fatalf("collision must keep the first descriptor, got %s", desc.Endpoint)
	}
}

func TestInvalidateForcesRediscovery(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	server := httptest.NewServer(discoveryHandler(taskDoc, &hits))
	t.Cleanup(server.Close)

	reg, err := New(Config{Services: []string{server.URL}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := reg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	hits.Store(0)

	reg.Invalidate(contractx.ToolTasks)
	if _, err := reg.Resolve(context.Background(), contractx.ToolTasks); err != nil {
		t.Fatalf("Resolve() after Invalidate error = %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one re-discovery fetch, got %d", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty service list")
	}
	if _, err := New(Config{Services: []string{"   "}}); err == nil {
		t.Fatal("expected error for blank service list")
	}
	if _, err := New(Config{Services: []string{"not a url"}}); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}
