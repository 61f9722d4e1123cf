// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// WEB SEARCH TOOL
// =============================================================================

const (
	firecrawlBaseURL = "https://api.firecrawl.dev"

	// searchLimit caps the number of results requested per query.
	searchLimit = 5

	// resultContentLimit truncates each result's scraped content so the
	// re-injected context stays small.
	resultContentLimit = 2000
)

// SearchTool performs web searches through the Firecrawl search API.
// A missing or rejected credential degrades to a failed Result with
// remediation guidance, never an error.
type SearchTool struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSearchTool creates the tool with the given Firecrawl credential.
// An empty apiKey is allowed; every call then fails with guidance.
func NewSearchTool(apiKey string) *SearchTool {
	return &SearchTool{
		apiKey:     apiKey,
		baseURL:    firecrawlBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewSearchToolWithBaseURL is NewSearchTool pointed at a custom
// endpoint, for tests.
func NewSearchToolWithBaseURL(apiKey, baseURL string) *SearchTool {
	t := NewSearchTool(apiKey)
	t.baseURL = strings.TrimSuffix(baseURL, "/")
	return t
}

func (t *SearchTool) Name() string { return "search_online" }

func (t *SearchTool) Description() string {
	return "Search the web for information. Use this when you need current information, " +
		"documentation, writeups, or to find resources online."
}

func (t *SearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []interface{}{"query"},
	}
}

// Execute runs the search. The registry has already checked the schema;
// an empty query is still rejected here since "" passes a type check.
func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) Result {
	query, _ := args["query"].(string)
	if query == "" {
		return Result{
			Summary:    "No search query provided",
			FullResult: `Error: Missing required parameter "query"`,
		}
	}

	if t.apiKey == "" {
		return Result{
			Summary:    "No API key",
			FullResult: "FIRECRAWL_API_KEY not set. Get one at https://firecrawl.dev",
		}
	}

	return t.search(ctx, query)
}

// =============================================================================
// FIRECRAWL CALL
// =============================================================================

type firecrawlRequest struct {
	Query         string                 `json:"query"`
	Limit         int                    `json:"limit"`
	ScrapeOptions firecrawlScrapeOptions `json:"scrapeOptions"`
}

type firecrawlScrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Markdown    string `json:"markdown"`
	} `json:"data"`
}

func (t *SearchTool) search(ctx context.Context, query string) Result {
	body, err := json.Marshal(firecrawlRequest{
		Query: query,
		Limit: searchLimit,
		ScrapeOptions: firecrawlScrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	})
	if err != nil {
		return searchFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return searchFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return searchFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return searchFailure(fmt.Errorf("Firecrawl API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var data firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return searchFailure(err)
	}

	if !data.Success || len(data.Data) == 0 {
		return Result{
			Success:    true,
			Summary:    "No results found",
			FullResult: fmt.Sprintf("No search results found for %q", query),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n\n", query)
	for i, r := range data.Data {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "--- Result %d: %s ---\n", i+1, title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", r.Description)
		}
		if r.Markdown != "" {
			content := r.Markdown
			if len(content) > resultContentLimit {
				content = content[:resultContentLimit] + "\n...[truncated]"
			}
			fmt.Fprintf(&b, "\nContent:\n%s\n", content)
		}
		b.WriteString("\n")
	}

	return Result{
		Success:    true,
		Summary:    fmt.Sprintf("Found %d results", len(data.Data)),
		FullResult: b.String(),
	}
}

func searchFailure(err error) Result {
	return Result{
		Summary:    "Search failed",
		FullResult: "Error: " + err.Error(),
	}
}
