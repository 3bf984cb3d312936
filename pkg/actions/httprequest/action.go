// Package httprequest performs HTTP calls from workflow steps, used for
// deploy hooks and notifications.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/template"
)

const defaultTimeoutSeconds = 30

var (
	ErrURLMissing = errors.New("http_request requires a url")
	// ErrServerError is returned when the server answers with a 5xx status.
	ErrServerError = errors.New("server error during http request")
)

// Action performs an HTTP request with optional headers, body, and retries.
// URL, headers, and body are rendered against the run context before sending.
type Action struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig
}

// RetryConfig defines retry behavior for failed requests.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, ErrURLMissing
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, err := parseBody(config["body"])
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if strVal, ok := v.(string); ok {
				headers[k] = strVal
			}
		}
	}

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeout"].(float64); ok {
		timeout = time.Duration(seconds) * time.Second
	}

	retry := RetryConfig{Attempts: 1}
	if retryConfig, ok := config["retry"]; ok {
		retry = parseRetryConfig(retryConfig)
	}

	return &Action{
		URL:     url,
		Method:  strings.ToUpper(method),
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   retry,
	}, nil
}

// parseBody accepts a string body as-is and encodes structured bodies
// (maps, lists) as JSON so their templated values still render at send time.
func parseBody(raw any) (string, error) {
	switch body := raw.(type) {
	case nil:
		return "", nil
	case string:
		return body, nil
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("unsupported body type %T: %w", raw, err)
		}

		return string(encoded), nil
	}
}

func parseRetryConfig(retryConfig any) RetryConfig {
	retry := RetryConfig{Attempts: 1}

	retryMap, ok := retryConfig.(map[string]any)
	if !ok {
		return retry
	}

	if attempts, ok := retryMap["attempts"].(float64); ok {
		retry.Attempts = int(attempts)
	}

	if delay, ok := retryMap["delay"].(float64); ok {
		retry.Delay = time.Duration(delay) * time.Second
	}

	return retry
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "http_request_action")

	var (
		lastErr error
		resp    *http.Response
	)

	for attempt := 1; attempt <= a.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying HTTP request", "attempt", attempt, "of", a.Retry.Attempts)
			time.Sleep(a.Retry.Delay)
		}

		req, err := a.buildRequest(ctx, executionCtx)
		if err != nil {
			lastErr = err

			continue
		}

		client := &http.Client{Timeout: a.Timeout}

		resp, err = client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < a.Retry.Attempts {
			if err := resp.Body.Close(); err != nil {
				logger.ErrorContext(ctx, "failed to close response body", "error", err)
			}

			lastErr = fmt.Errorf("status %d, retrying: %w", resp.StatusCode, ErrServerError)

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
	}

	return a.processResponse(ctx, resp, logger)
}

func (a *Action) buildRequest(ctx context.Context, executionCtx models.ExecutionContext) (*http.Request, error) {
	url, err := template.RenderString(a.URL, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	body, err := a.buildRequestBody(executionCtx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range a.Headers {
		rendered, err := template.RenderString(value, &executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render header %q: %w", key, err)
		}

		req.Header.Set(key, rendered)
	}

	return req, nil
}

func (a *Action) buildRequestBody(executionCtx models.ExecutionContext) (io.Reader, error) {
	if a.Body == "" {
		return strings.NewReader(""), nil
	}

	body, err := template.RenderWithContext(a.Body, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	if str, ok := body.(string); ok {
		return strings.NewReader(str), nil
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	return strings.NewReader(string(bodyBytes)), nil
}

func (a *Action) processResponse(ctx context.Context, resp *http.Response, logger *slog.Logger) (any, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any

	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		body = string(bodyBytes)
	}

	logger.InfoContext(ctx, "HTTP request completed", "status", resp.StatusCode, "body_length", len(bodyBytes))

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
		"headers":     resp.Header,
	}, nil
}
