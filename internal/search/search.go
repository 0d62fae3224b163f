// Package search provides a best-effort market research lookup.
//
// Search enriches the context-gathering stage but is never a correctness
// dependency: every failure path returns a placeholder string instead of an
// error, so the pipeline proceeds without research rather than halting.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fallback is returned whenever the lookup fails or yields nothing.
const Fallback = "Market research for similar products and competitors"

const maxResultLen = 1000

type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client against the DuckDuckGo instant-answer API.
func New() *Client {
	return NewWithBaseURL("https://api.duckduckgo.com")
}

// NewWithBaseURL is used by tests to point at a fake endpoint.
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Search returns a short research digest for the query, or Fallback.
func (c *Client) Search(ctx context.Context, query string) string {
	u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Fallback
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fallback
	}

	var answer struct {
		AbstractText  string `json:"AbstractText"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return Fallback
	}

	var sb strings.Builder
	if answer.AbstractText != "" {
		sb.WriteString(answer.AbstractText)
	}
	for _, topic := range answer.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(topic.Text)
		if sb.Len() >= maxResultLen {
			break
		}
	}

	result := sb.String()
	if result == "" {
		return Fallback
	}
	if runes := []rune(result); len(runes) > maxResultLen {
		result = string(runes[:maxResultLen])
	}
	return result
}
