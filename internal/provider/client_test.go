// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-orchestrator/internal/httputil"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testQuery() types.CanonicalQuery {
	return types.CanonicalQuery{
		ID:             "q1",
		Title:          "T1",
		Question:       "What is X?",
		ResearchArea:   "Biology",
		CitationStyle:  types.StyleAPA,
		Depth:          types.DepthStandard,
		SelectedAgents: []string{"crow"},
		MaxResults:     50,
	}
}

func newTestClient(ts *httptest.Server) *Client {
	c := NewClient(types.ProviderConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "test/0.1"},
		BaseURL:    ts.URL + "/",
		APIKey:     "secret",
	})
	c.HTTP = ts.Client()
	return c
}

func TestInvokeSendsRequestAndDecodesData(t *testing.T) {
	var got researchRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, researchPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"agent": "CROW",
			"data": {
				"sources": [
					{"title": "Paper A", "authors": ["Smith, J."], "year": 2024, "doi": "10.1/a", "relevance_score": 0.8},
					{"title": "Paper B"}
				],
				"synthesis": {"summary": "S", "key_findings": ["F1"]}
			}
		}`))
	}))
	defer ts.Close()

	resp, err := newTestClient(ts).Invoke(context.Background(), testQuery(), types.AgentProfile{ID: "crow"})
	require.NoError(t, err)

	assert.Equal(t, "What is X?", got.Query)
	assert.Equal(t, "CROW", got.Agent)
	assert.Equal(t, 50, got.Options.MaxResults)
	assert.Equal(t, "apa", got.Options.CitationStyle)
	assert.Equal(t, "Biology", got.Options.ResearchArea)
	assert.Equal(t, "standard", got.Options.SynthesisType)

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "Paper A", resp.Sources[0].Title)
	require.NotNil(t, resp.Sources[0].Relevance)
	assert.InDelta(t, 0.8, *resp.Sources[0].Relevance, 1e-9)
	require.NotNil(t, resp.Synthesis)
	assert.Equal(t, []string{"F1"}, resp.Synthesis.KeyFindings)
}

func TestInvokeNon2xxIsProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Invoke(context.Background(), testQuery(), types.AgentProfile{ID: "falcon"})
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Equal(t, "falcon", perr.Agent)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestInvokeBadJSONIsProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Invoke(context.Background(), testQuery(), types.AgentProfile{ID: "crow"})
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, err.Error(), "parsing response")
}

func TestInvokeTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(ts).Invoke(ctx, testQuery(), types.AgentProfile{ID: "crow"})
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, healthPath, r.URL.Path)
		w.Write([]byte(`{"version": "1.0.0", "futurehouse_available": true}`))
	}))
	defer ts.Close()

	h := newTestClient(ts).Health(context.Background())
	assert.True(t, h.Available)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "1.0.0", h.Version)
	assert.True(t, h.FutureHouseAvailable)
}

func TestHealthUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	h := newTestClient(ts).Health(context.Background())
	assert.False(t, h.Available)
	assert.Contains(t, h.Error, "HTTP 500")
}
