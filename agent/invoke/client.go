package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

const (
	invokePath           = "/invoke"
	maxResponseSizeBytes = 2 << 20
	maxErrorMessageBytes = 2048

	// Only transient network failures are retried, at most once.
	transientRetries = 1
)

// Config holds the invocation settings.
type Config struct {
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client performs tool invocations against a service's /invoke endpoint.
// All failures are returned as classified InvocationResults, never as errors:
// the caller decides what a failure means.
type Client struct {
	httpClient *http.Client
}

var _ contractx.Invoker = (*Client)(nil)

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Invoke validates the arguments against the descriptor's input schema, then
// posts the invocation. Missing required fields fail fast with
// invalid_arguments and no network call.
func (c *Client) Invoke(ctx context.Context, descriptor contractx.ToolDescriptor, arguments map[string]any) contractx.InvocationResult {
	if missing := missingArguments(descriptor.InputSchema, arguments); len(missing) > 0 {
		return contractx.Fail(contractx.FailureInvalidArguments,
			"tool %s requires arguments: %s", descriptor.Name, strings.Join(missing, ", "))
	}

	payload, err := json.Marshal(contractx.InvocationRequest{
		Name:      descriptor.Name,
		Arguments: arguments,
	})
	if err != nil {
		return contractx.Fail(contractx.FailureInvalidArguments,
			"tool %s arguments are not serializable: %v", descriptor.Name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= transientRetries; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				break
			}
			log.Debug().Str("tool", descriptor.Name).Int("attempt", attempt+1).Msg("retrying tool invocation")
		}

		result, err := c.post(ctx, descriptor, payload)
		if err == nil {
			return result
		}
		lastErr = err
	}

	return contractx.Fail(contractx.FailureUnreachable,
		"tool %s at %s is unreachable: %v", descriptor.Name, descriptor.Endpoint, lastErr)
}

// post performs one invocation attempt. A non-nil error means a transport
// failure that may be retried; everything else comes back as a result.
func (c *Client) post(ctx context.Context, descriptor contractx.ToolDescriptor, payload []byte) (contractx.InvocationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, descriptor.Endpoint+invokePath, bytes.NewReader(payload))
	if err != nil {
		return contractx.InvocationResult{}, fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contractx.InvocationResult{}, fmt.Errorf("execute invoke request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.InvocationResult{}, fmt.Errorf("read invoke response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := remoteErrorMessage(raw, resp.Status)
		// A service that restarted with a different tool set answers with an
		// unknown-tool error; surface that distinctly so the registry entry
		// can be invalidated.
		if strings.Contains(strings.ToLower(message), "unknown tool") {
			return contractx.Fail(contractx.FailureNotFound,
				"tool %s rejected by %s: %s", descriptor.Name, descriptor.Endpoint, message), nil
		}
		return contractx.Fail(contractx.FailureToolError,
			"tool %s failed: %s", descriptor.Name, message), nil
	}

	var parsed struct {
		Content []contractx.ContentBlock `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.Fail(contractx.FailureMalformedResponse,
			"tool %s returned an undecodable body: %v", descriptor.Name, err), nil
	}
	if len(parsed.Content) == 0 {
		return contractx.Fail(contractx.FailureMalformedResponse,
			"tool %s returned an empty content array", descriptor.Name), nil
	}
	hasText := false
	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return contractx.Fail(contractx.FailureMalformedResponse,
			"tool %s returned no text content", descriptor.Name), nil
	}

	return contractx.Succeed(parsed.Content...), nil
}

// missingArguments returns the required schema fields absent from arguments,
// sorted for stable messages.
func missingArguments(schema contractx.ToolInputSchema, arguments map[string]any) []string {
	var missing []string
	for _, field := range schema.Required {
		if _, ok := arguments[field]; !ok {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

// remoteErrorMessage extracts a human-readable message from an error body,
// accepting the {"error": ...} and {"detail": ...} conventions before falling
// back to the raw body, capped.
func remoteErrorMessage(raw []byte, status string) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return status
	}
	if len(trimmed) > maxErrorMessageBytes {
		trimmed = trimmed[:maxErrorMessageBytes]
	}
	return trimmed
}
