// Package websearch implements the search_web tool against the DuckDuckGo
// HTML endpoint. No API key is required; results are scraped from the
// lite HTML page and formatted as a numbered list.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/parleyhq/parley/pkg/logger"
)

const (
	defaultEndpoint   = "https://html.duckduckgo.com/html/"
	defaultMaxResults = 5
	snippetLimit      = 200

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	reLink    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	reSnippet = regexp.MustCompile(`<a[^>]*class="[^"]*result__snippet[^"]*"[^>]*>([\s\S]*?)</a>`)
	reTag     = regexp.MustCompile(`<[^>]+>`)
)

type Searcher struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

type Option func(*Searcher)

func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithEndpoint overrides the search endpoint, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(s *Searcher) {
		s.endpoint = endpoint
	}
}

func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{
		endpoint:   defaultEndpoint,
		maxResults: defaultMaxResults,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the query and returns a numbered result list, or a
// "no results" line when extraction finds nothing.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errors.New("search query cannot be empty")
	}

	logger.InfoCF("websearch", "Searching", map[string]any{"query": query})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}

	results := extractResults(string(body), s.maxResults)
	if len(results) == 0 {
		return "No results found for: " + query, nil
	}
	return formatResults(query, results), nil
}

type result struct {
	title   string
	url     string
	snippet string
}

func extractResults(page string, max int) []result {
	links := reLink.FindAllStringSubmatch(page, max)
	snippets := reSnippet.FindAllStringSubmatch(page, max)

	out := make([]result, 0, len(links))
	for i, match := range links {
		r := result{
			title: cleanText(match[2]),
			url:   cleanURL(match[1]),
		}
		// Snippet anchors appear in the same order as result links on
		// the DDG HTML page.
		if i < len(snippets) {
			r.snippet = cleanText(snippets[i][1])
		}
		out = append(out, r)
	}
	return out
}

func formatResults(query string, results []result) string {
	lines := []string{fmt.Sprintf("Results for: %s", query)}
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, r.title, r.url))
		if r.snippet != "" {
			snippet := r.snippet
			if len(snippet) > snippetLimit {
				snippet = snippet[:snippetLimit] + "..."
			}
			lines = append(lines, "   "+snippet)
		}
	}
	return strings.Join(lines, "\n")
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(reTag.ReplaceAllString(s, "")))
}

// cleanURL unwraps DDG redirect links, which carry the target in the
// uddg query parameter.
func cleanURL(href string) string {
	href = html.UnescapeString(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
