// Parley - Terminal chat client for OpenRouter
// License: MIT
//
// Copyright (c) 2026 Parley contributors

// Package openrouter is the HTTP transport for the OpenRouter
// chat-completions API: request construction, SSE streaming, error
// envelope decoding and retry with exponential backoff.
package openrouter

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
	"time"

	"golang.org/x/time/rate"

	"github.com/parleyhq/parley/pkg/logger"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	refererURL  = "https://github.com/parleyhq/parley"
	clientTitle = "Parley CLI"

	defaultTimeout            = 30 * time.Second
	defaultMaxRetries         = 3
	defaultRetryInitialDelay  = time.Second
	defaultRetryBackoffFactor = 2.0
)

type Client struct {
	apiKey             string
	baseURL            string
	httpClient         *http.Client
	timeout            time.Duration
	maxRetries         int
	retryInitialDelay  time.Duration
	retryBackoffFactor float64
	limiter            *rate.Limiter

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithRetryPolicy(maxRetries int, initialDelay time.Duration, backoffFactor float64) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if initialDelay > 0 {
			c.retryInitialDelay = initialDelay
		}
		if backoffFactor > 0 {
			c.retryBackoffFactor = backoffFactor
		}
	}
}

// WithRequestsPerMinute enables client-side pacing. Zero disables it.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:             apiKey,
		baseURL:            DefaultBaseURL,
		httpClient:         &http.Client{},
		timeout:            defaultTimeout,
		maxRetries:         defaultMaxRetries,
		retryInitialDelay:  defaultRetryInitialDelay,
		retryBackoffFactor: defaultRetryBackoffFactor,
		sleep:              sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Chat sends a non-streaming chat completion, retrying transient failures
// with exponential backoff.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	var lastErr error
	delay := c.retryInitialDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		resp, err := c.doChat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxRetries || !IsRetryable(err) {
			return nil, err
		}

		logger.WarnCF("openrouter", "Retryable API error, backing off", map[string]any{
			"attempt": attempt + 1,
			"total":   c.maxRetries + 1,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay = time.Duration(float64(delay) * c.retryBackoffFactor)
	}
	return nil, lastErr
}

// ChatStream sends a streaming chat completion, invoking fn once per text
// token. Failed attempts are retried only while no token has been
// delivered yet; a mid-stream failure would otherwise duplicate output.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, fn func(token string) error) error {
	req.Stream = true

	var lastErr error
	delay := c.retryInitialDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.pace(ctx); err != nil {
			return err
		}

		delivered := false
		err := c.doChatStream(ctx, req, func(token string) error {
			delivered = true
			return fn(token)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if delivered || attempt == c.maxRetries || !IsRetryable(err) {
			return err
		}

		logger.WarnCF("openrouter", "Retryable streaming error, backing off", map[string]any{
			"attempt": attempt + 1,
			"total":   c.maxRetries + 1,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * c.retryBackoffFactor)
	}
	return lastErr
}

// ListModels fetches the available model catalog.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp.StatusCode, body)
	}

	var listing struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode models listing: %w", err)
	}
	return listing.Data, nil
}

func (c *Client) doChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp.StatusCode, body)
	}

	var parsed ChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}
	return &parsed, nil
}

// doChatStream performs one streaming attempt. The overall duration is
// bounded only by ctx; c.timeout would cut off long generations.
func (c *Client) doChatStream(ctx context.Context, req ChatRequest, fn func(token string) error) error {
	resp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return c.apiError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			logger.WarnCF("openrouter", "Failed to decode streaming chunk, skipping", map[string]any{
				"data": data,
			})
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if token := chunk.Choices[0].Delta.Content; token != "" {
			if err := fn(token); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("streaming request failed: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, req ChatRequest) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", refererURL)
	req.Header.Set("X-Title", clientTitle)
}

// apiError decodes the error envelope, falling back to the raw body text
// when the envelope does not parse.
func (c *Client) apiError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.ProviderName = envelope.Error.Metadata.ProviderName
		apiErr.Raw = envelope.Error.Metadata.Raw
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	logger.ErrorCF("openrouter", "API request failed", map[string]any{
		"status":  status,
		"message": apiErr.Message,
	})
	if apiErr.ProviderName != "" {
		logger.ErrorCF("openrouter", "Upstream provider reported failure", map[string]any{
			"provider": apiErr.ProviderName,
			"raw":      apiErr.Raw,
		})
	}
	return apiErr
}

func (c *Client) pace(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// IsRetryable reports whether the error is a transient API failure:
// rate limit, service unavailable or gateway timeout. Callers use it to
// tell recoverable failures from ones that need a config fix.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
