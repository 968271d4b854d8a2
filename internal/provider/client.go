// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/research-orchestrator/internal/httputil"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

const (
	researchPath = "/api/research"
	healthPath   = "/health"
)

// Client calls the FutureHouse backend over HTTP JSON.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	APIKey    string
	UserAgent string

	// MaxRetries bounds 429/503 retries per request (0 = httputil default).
	MaxRetries int
}

// NewClient builds a Client from cfg.
func NewClient(cfg types.ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
	}
}

type researchRequest struct {
	Query   string          `json:"query"`
	Agent   string          `json:"agent"`
	Options researchOptions `json:"options"`
}

type researchOptions struct {
	MaxResults    int    `json:"max_results"`
	CitationStyle string `json:"citation_style"`
	ResearchArea  string `json:"research_area"`
	SynthesisType string `json:"synthesis_type"`
}

// researchEnvelope is the backend's wrapper; the payload lives under data.
type researchEnvelope struct {
	Success bool     `json:"success"`
	Agent   string   `json:"agent"`
	Data    Response `json:"data"`
}

// Invoke posts q to the research endpoint on behalf of agent.
func (c *Client) Invoke(ctx context.Context, q types.CanonicalQuery, agent types.AgentProfile) (Response, error) {
	body, err := json.Marshal(researchRequest{
		Query: q.Question,
		Agent: strings.ToUpper(agent.ID),
		Options: researchOptions{
			MaxResults:    q.MaxResults,
			CitationStyle: string(q.CitationStyle),
			ResearchArea:  q.ResearchArea,
			SynthesisType: string(q.Depth),
		},
	})
	if err != nil {
		return Response{}, &Error{Agent: agent.ID, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+researchPath, bytes.NewReader(body))
	if err != nil {
		return Response{}, &Error{Agent: agent.ID, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return Response{}, &Error{Agent: agent.ID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &Error{Agent: agent.ID, StatusCode: resp.StatusCode}
	}

	var env researchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Response{}, &Error{Agent: agent.ID, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return env.Data, nil
}

// Health reports the backend's health endpoint status.
type Health struct {
	Available            bool   `json:"available"`
	Status               string `json:"status,omitempty"`
	Version              string `json:"version,omitempty"`
	FutureHouseAvailable bool   `json:"futurehouse_available"`
	Error                string `json:"error,omitempty"`
}

// Health checks whether the backend is reachable. Failures are reported in
// the returned value, not as an error.
func (c *Client) Health(ctx context.Context) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return Health{Error: err.Error()}
	}
	c.decorate(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Health{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{Error: fmt.Sprintf("health check returned HTTP %d", resp.StatusCode)}
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{Error: fmt.Sprintf("parsing health response: %v", err)}
	}
	h.Available = true
	if h.Status == "" {
		h.Status = "healthy"
	}
	return h
}

func (c *Client) decorate(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}
