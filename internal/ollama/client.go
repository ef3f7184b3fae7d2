// Package ollama is a minimal client for the Ollama text-generation API
// with availability probing and stream accumulation.
//
// Before any generation the client probes the model registry (/api/tags).
// A missing model short-circuits with ErrModelNotFound and a deterministic
// user-facing message instead of attempting generation. Streamed responses
// are folded into a single string; malformed chunk lines are skipped.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stockchat/stockchat/internal/log"
)

// ErrModelNotFound indicates the configured model is not present in the
// Ollama registry. Callers surface NotFoundMessage verbatim for this error.
var ErrModelNotFound = errors.New("model not found")

// Config configures the Ollama client.
type Config struct {
	// Host is the Ollama base URL, e.g. "http://localhost:11434".
	Host string

	// Model is the model identifier, e.g. "qwen3:0.6b".
	Model string

	// Temperature is passed through on every generation request.
	Temperature float64

	// AllowTagFallback accepts a registry entry matching the model's base
	// name when the exact tag is absent. Loose compatibility policy; the
	// substitute is not guaranteed equivalent.
	AllowTagFallback bool

	// HTTPClient is the transport to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client talks to the Ollama API.
type Client struct {
	host             string
	model            string
	temperature      float64
	allowTagFallback bool
	httpClient       *http.Client
	logger           log.Logger
}

// New creates an Ollama client.
func New(cfg Config, logger log.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:             strings.TrimRight(cfg.Host, "/"),
		model:            cfg.Model,
		temperature:      cfg.Temperature,
		allowTagFallback: cfg.AllowTagFallback,
		httpClient:       httpClient,
		logger:           logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// NotFoundMessage is the deterministic reply used when the configured model
// is absent from the registry. It is returned to users verbatim.
func (c *Client) NotFoundMessage() string {
	return fmt.Sprintf("Error: model %q was not found. Run \"ollama pull %s\" to download it.", c.model, c.model)
}

// generateRequest is the /api/generate request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

// chunk is one newline-delimited JSON object of a streamed response.
type chunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// tagsResponse is the /api/tags response body.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Probe checks that the configured model is available in the registry.
// An exact name match succeeds. If the model carries a tag and tag fallback
// is enabled, a registry entry matching the base name also succeeds, with a
// logged compatibility caveat. Otherwise ErrModelNotFound is returned.
// Transport failures are returned as-is.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("building tags request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing models: unexpected status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == c.model {
			return nil
		}
	}

	// Models are published as "family:tag". When the exact tag is missing,
	// an installed entry under the bare family name may still serve.
	base, tag, hasTag := strings.Cut(c.model, ":")
	if hasTag && tag != "" && c.allowTagFallback {
		for _, m := range tags.Models {
			if m.Name == base {
				c.logger.Warn("exact model tag not installed, using base model",
					"want", c.model, "using", base)
				return nil
			}
		}
	}

	c.logger.Warn("model not found in registry", "model", c.model, "installed", len(tags.Models))
	return ErrModelNotFound
}

// Generate submits a prompt and returns the accumulated response text.
// The registry is probed first; a missing model returns ErrModelNotFound
// without attempting generation. A 404 from the generate endpoint is also
// reported as ErrModelNotFound.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.Probe(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Options: generateOptions{Temperature: c.temperature},
		Stream:  true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrModelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("querying model: unexpected status %d", resp.StatusCode)
	}

	return accumulate(resp.Body), nil
}

// accumulate folds a stream of newline-delimited JSON chunks into the full
// response text. Lines that fail to parse are skipped rather than aborting
// the stream; the fold ends at the first done chunk or at stream close.
func accumulate(r io.Reader) string {
	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ck chunk
		if err := json.Unmarshal(line, &ck); err != nil {
			continue
		}
		sb.WriteString(ck.Response)
		if ck.Done {
			break
		}
	}

	return sb.String()
}
