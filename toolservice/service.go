package toolservice

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
	"github.com/tanwarat/scribemesh/pkg/textgen"
)

const (
	minTranscriptLength = 10
	maxTranscriptLength = 10000

	maxRequestSizeBytes = 2 << 20
)

// Config holds the tool service settings.
type Config struct {
	Agent string `envconfig:"AGENT" default:"summarizer"`
	Port  int    `envconfig:"PORT" default:"8001"`
}

// Service serves one agent's capabilities over the discovery and invocation
// endpoints. When no generator is supplied the offline heuristics answer
// instead.
type Service struct {
	agent        string
	capabilities map[string]Capability
	order        []string
	gen          textgen.Generator
}

func New(cfg Config, gen textgen.Generator) (*Service, error) {
	caps, err := ForAgent(cfg.Agent)
	if err != nil {
		return nil, err
	}

	s := &Service{
		agent:        cfg.Agent,
		capabilities: make(map[string]Capability, len(caps)),
		gen:          gen,
	}
	for _, c := range caps {
		s.capabilities[c.Descriptor.Name] = c
		s.order = append(s.order, c.Descriptor.Name)
	}
	return s, nil
}

// Handler returns the HTTP surface of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/mcp.json", s.handleDiscovery)
	mux.HandleFunc("POST /invoke", s.handleInvoke)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Service) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	tools := make([]contractx.ToolDescriptor, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.capabilities[name].Descriptor)
	}
	respondJSON(w, http.StatusOK, contractx.DiscoveryDocument{
		Tools:        tools,
		Resources:    []any{},
		Capabilities: map[string]any{"tools": map[string]any{}},
	})
}

func (s *Service) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req contractx.InvocationRequest
	body := io.LimitReader(r.Body, maxRequestSizeBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	capability, ok := s.capabilities[req.Name]
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown tool: %s", req.Name))
		return
	}

	transcript, ok := req.Arguments["transcript"].(string)
	if !ok || transcript == "" {
		respondError(w, http.StatusBadRequest, "argument transcript is required")
		return
	}
	if len(transcript) < minTranscriptLength {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("transcript shorter than %d characters", minTranscriptLength))
		return
	}
	if len(transcript) > maxTranscriptLength {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("transcript longer than %d characters", maxTranscriptLength))
		return
	}

	text, err := s.generate(r, capability, transcript)
	if err != nil {
		log.Error().Err(err).Str("tool", req.Name).Msg("tool generation failed")
		respondError(w, http.StatusInternalServerError, "text generation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"content": []contractx.ContentBlock{{Type: "text", Text: text}},
	})
}

func (s *Service) generate(r *http.Request, capability Capability, transcript string) (string, error) {
	if s.gen == nil {
		return capability.Offline(transcript), nil
	}
	return s.gen.Generate(r.Context(), capability.Prompt(transcript))
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  s.agent,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
