package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"time"

	"github.com/sodam-chat/sodam/internal/logging"
)

type MiddlewareNext = func(*http.Request) (*http.Response, error)
type Middleware = func(*http.Request, MiddlewareNext) (*http.Response, error)

// HTTPDoer is primarily used to describe an [*http.Client], but also
// supports custom HTTP implementations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestConfig represents all the state related to one request.
type RequestConfig struct {
	MaxRetries     int
	RequestTimeout time.Duration
	BaseURL        *url.URL
	HTTPClient     HTTPDoer
	Middlewares    []Middleware
	Headers        http.Header

	// TokenSource returns the current bearer token, or "" when the
	// session is anonymous. The session store is the single writer.
	TokenSource func() string

	// OnAuthFailure is invoked for every 401/403 response. Collapsing
	// concurrent failures into a single logout is the notifier's job,
	// not this client's.
	OnAuthFailure func()
}

type RequestOption = func(*RequestConfig) error

func WithBaseURL(base string) RequestOption {
	return func(cfg *RequestConfig) error {
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
		cfg.BaseURL = u
		return nil
	}
}

func WithHTTPClient(doer HTTPDoer) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.HTTPClient = doer
		return nil
	}
}

func WithRequestTimeout(d time.Duration) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.RequestTimeout = d
		return nil
	}
}

func WithMaxRetries(n int) RequestOption {
	return func(cfg *RequestConfig) error {
		if n < 0 {
			return fmt.Errorf("max retries cannot be negative")
		}
		cfg.MaxRetries = n
		return nil
	}
}

func WithHeader(key, value string) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.Headers.Set(key, value)
		return nil
	}
}

func WithBearerTokenSource(source func() string) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.TokenSource = source
		return nil
	}
}

func WithAuthFailureHandler(handler func()) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.OnAuthFailure = handler
		return nil
	}
}

func WithMiddleware(m Middleware) RequestOption {
	return func(cfg *RequestConfig) error {
		cfg.Middlewares = append(cfg.Middlewares, m)
		return nil
	}
}

var sensitiveHeaderRegex = regexp.MustCompile(`(?i)^(Authorization|Cookie|Set-Cookie|X-Api-Key): .+`)

func redactSensitiveHeaders(s string) string {
	return sensitiveHeaderRegex.ReplaceAllString(s, "$1: [REDACTED]")
}

func WithDebugLog(logger logging.Logger) RequestOption {
	if logger == nil {
		logger = logging.NewNop()
	}

	return WithMiddleware(func(r *http.Request, next MiddlewareNext) (*http.Response, error) {
		if dump, err := httputil.DumpRequestOut(r, true); err == nil {
			logger.Debugf("REQUEST:\n%s\n", redactSensitiveHeaders(string(dump)))
		}

		resp, err := next(r)

		if resp != nil {
			if dump, err := httputil.DumpResponse(resp, true); err == nil {
				logger.Debugf("RESPONSE:\n%s\n", redactSensitiveHeaders(string(dump)))
			}
		}

		if err != nil {
			logger.Debugf("REQUEST ERROR: %v", err)
		}

		return resp, err
	})
}
