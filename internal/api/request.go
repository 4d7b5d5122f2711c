package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const packageVersion = "0.1.0"

var defaultBaseURL = &url.URL{Scheme: "http", Host: "localhost:8080", Path: "/"}

func newRequestConfig(opts ...RequestOption) (*RequestConfig, error) {
	cfg := &RequestConfig{
		MaxRetries:     2,
		RequestTimeout: 10 * time.Second,
		BaseURL:        defaultBaseURL,
		HTTPClient:     http.DefaultClient,
		Headers:        http.Header{},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// executeNewRequest builds, sends and decodes one REST call. Retries are
// bounded and only applied to GETs, for transport errors and 5xx
// responses; everything else surfaces on the first attempt.
func executeNewRequest(ctx context.Context, method, path string, params, res any, opts ...RequestOption) error {
	cfg, err := newRequestConfig(opts...)
	if err != nil {
		return err
	}

	var body []byte
	if params != nil {
		body, err = json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("invalid request path: %w", err)
	}
	fullURL := cfg.BaseURL.JoinPath(ref.Path)
	fullURL.RawQuery = ref.RawQuery

	attempts := 1
	if method == http.MethodGet {
		attempts = cfg.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(250 * time.Millisecond):
			}
		}

		retry, err := cfg.doOnce(ctx, method, fullURL.String(), body, res)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}

	return lastErr
}

func (cfg *RequestConfig) doOnce(ctx context.Context, method, fullURL string, body []byte, res any) (retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, fullURL, reader)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("Sodam/Client %s", packageVersion))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range cfg.Headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if cfg.TokenSource != nil {
		if token := cfg.TokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	next := cfg.HTTPClient.Do
	for i := len(cfg.Middlewares) - 1; i >= 0; i-- {
		mw := cfg.Middlewares[i]
		inner := next
		next = func(r *http.Request) (*http.Response, error) {
			return mw(r, inner)
		}
	}

	resp, err := next(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if res == nil || resp.StatusCode == http.StatusNoContent {
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr := decodeError(resp)
		if cfg.OnAuthFailure != nil {
			cfg.OnAuthFailure()
		}
		return false, apiErr

	case resp.StatusCode >= 500:
		return true, decodeError(resp)

	default:
		return false, decodeError(resp)
	}
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}

	return apiErr
}
