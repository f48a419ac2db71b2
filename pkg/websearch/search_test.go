package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `
<html><body>
<div class="result">
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The <b>Go</b> Programming Language</a>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">Go is an open source language &amp; toolchain.</a>
</div>
<div class="result">
  <a rel="nofollow" class="result__a" href="https://go.dev/doc/">Documentation</a>
  <a class="result__snippet" href="https://go.dev/doc/">Official docs.</a>
</div>
</body></html>`

func TestExtractResults(t *testing.T) {
	results := extractResults(fixturePage, 5)
	require.Len(t, results, 2)

	assert.Equal(t, "The Go Programming Language", results[0].title, "tags stripped")
	assert.Equal(t, "https://go.dev/", results[0].url, "uddg redirect unwrapped")
	assert.Equal(t, "Go is an open source language & toolchain.", results[0].snippet, "entities decoded")

	assert.Equal(t, "Documentation", results[1].title)
	assert.Equal(t, "https://go.dev/doc/", results[1].url, "direct link passes through")
}

func TestExtractResultsRespectsMax(t *testing.T) {
	results := extractResults(fixturePage, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "The Go Programming Language", results[0].title)
}

func TestFormatResultsTruncatesSnippets(t *testing.T) {
	out := formatResults("golang", []result{{
		title:   "Title",
		url:     "https://example.com",
		snippet: strings.Repeat("s", 300),
	}})

	assert.True(t, strings.HasPrefix(out, "Results for: golang\n1. Title\n   https://example.com\n"))
	assert.Contains(t, out, strings.Repeat("s", snippetLimit)+"...")
	assert.NotContains(t, out, strings.Repeat("s", snippetLimit+1))
}

func TestSearchEndToEnd(t *testing.T) {
	var gotQuery, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(fixturePage))
	}))
	defer server.Close()

	s := NewSearcher(WithEndpoint(server.URL), WithMaxResults(5))
	out, err := s.Search(context.Background(), "go language")
	require.NoError(t, err)

	assert.Equal(t, "go language", gotQuery)
	assert.Equal(t, userAgent, gotUA)
	assert.Contains(t, out, "Results for: go language")
	assert.Contains(t, out, "1. The Go Programming Language")
	assert.Contains(t, out, "2. Documentation")
}

func TestSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer server.Close()

	s := NewSearcher(WithEndpoint(server.URL))
	out, err := s.Search(context.Background(), "xyzzy")
	require.NoError(t, err)
	assert.Equal(t, "No results found for: xyzzy", out)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := NewSearcher()
	_, err := s.Search(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	s := NewSearcher(WithEndpoint(server.URL))
	_, err := s.Search(context.Background(), "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 202")
}
