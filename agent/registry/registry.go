package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

const (
	discoveryPath        = "/.well-known/mcp.json"
	maxResponseSizeBytes = 1 << 20
)

// Config holds the discovery settings for the registry.
type Config struct {
	// Services are the base URLs of the tool services to discover from.
	Services []string      `envconfig:"SERVICES" split_words:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes a Registry.
type Option func(*Registry)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// Registry is the process-wide cache of discovered tool descriptors, keyed by
// tool name. Reads are concurrent; a refresh builds the next snapshot outside
// the lock and swaps it in under a short write lock, so refreshing never
// blocks resolutions against the current snapshot.
type Registry struct {
	services   []string
	httpClient *http.Client

	mu         sync.RWMutex
	tools      map[string]contractx.ToolDescriptor
	generation uint64
}

var _ contractx.Resolver = (*Registry)(nil)

func New(cfg Config, opts ...Option) (*Registry, error) {
	if len(cfg.Services) == 0 {
		return nil, errors.New("at least one tool service endpoint is required")
	}

	services := make([]string, 0, len(cfg.Services))
	for _, raw := range cfg.Services {
		endpoint := strings.TrimRight(strings.TrimSpace(raw), "/")
		if endpoint == "" {
			continue
		}
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("invalid tool service endpoint %q: %w", raw, err)
		}
		services = append(services, endpoint)
	}
	if len(services) == 0 {
		return nil, errors.New("at least one tool service endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := &Registry{
		services:   services,
		httpClient: &http.Client{Timeout: timeout},
		tools:      map[string]contractx.ToolDescriptor{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Resolve returns the descriptor for a tool name. A cache miss triggers at
// most one refresh for this call; if the name is still absent afterwards the
// error wraps ErrToolNotFound.
func (r *Registry) Resolve(ctx context.Context, name string) (contractx.ToolDescriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractx.ToolDescriptor{}, fmt.Errorf("%w: empty tool name", contractx.ErrToolNotFound)
	}

	if desc, ok := r.lookup(name); ok {
		return desc, nil
	}

	// Bounded to a single re-fetch per resolution to avoid refresh storms.
	if err := r.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("partial tool discovery during lazy refresh")
	}
	if desc, ok := r.lookup(name); ok {
		return desc, nil
	}
	return contractx.ToolDescriptor{}, fmt.Errorf("%w: %s", contractx.ErrToolNotFound, name)
}

// Invalidate drops a cached descriptor so the next resolution re-discovers
// it. Used after an invocation-side "unknown tool" response, which means the
// owning service restarted with a different tool set.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	delete(r.tools, name)
	r.mu.Unlock()
}

// Refresh fetches the discovery document of every configured service and
// swaps in a new snapshot. An unreachable service contributes no tools and is
// reported in the aggregate error; the snapshot still replaces the cache.
// Duplicate tool names across services are a configuration error: the first
// discovered descriptor wins and the collision is reported.
func (r *Registry) Refresh(ctx context.Context) error {
	next := make(map[string]contractx.ToolDescriptor)
	var errs []error

	for _, endpoint := range r.services {
		doc, err := r.fetch(ctx, endpoint)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("tool service discovery failed")
			errs = append(errs, fmt.Errorf("%w: %s: %v", contractx.ErrDiscovery, endpoint, err))
			continue
		}
		for _, tool := range doc.Tools {
			name := strings.TrimSpace(tool.Name)
			if name == "" {
				continue
			}
			if prev, ok := next[name]; ok {
				errs = append(errs, fmt.Errorf("%w: %s served by both %s and %s", contractx.ErrToolCollision, name, prev.Endpoint, endpoint))
				continue
			}
			tool.Name = name
			tool.Endpoint = endpoint
			next[name] = tool
			log.Debug().Str("tool", name).Str("endpoint", endpoint).Msg("tool registered")
		}
	}

	r.mu.Lock()
	r.tools = next
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	log.Info().Uint64("generation", generation).Int("tool_count", len(next)).Msg("tool registry refreshed")
	return errors.Join(errs...)
}

// Snapshot returns the cached descriptors sorted by name.
func (r *Registry) Snapshot() []contractx.ToolDescriptor {
	r.mu.RLock()
	out := make([]contractx.ToolDescriptor, 0, len(r.tools))
	for _, desc := range r.tools {
		out = append(out, desc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Generation increments on every snapshot swap.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

func (r *Registry) lookup(name string) (contractx.ToolDescriptor, bool) {
	r.mu.RLock()
	desc, ok := r.tools[name]
	r.mu.RUnlock()
	return desc, ok
}

func (r *Registry) fetch(ctx context.Context, endpoint string) (*contractx.DiscoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+discoveryPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute discovery request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read discovery response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("discovery http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var doc contractx.DiscoveryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode discovery document: %w", err)
	}
	return &doc, nil
}
