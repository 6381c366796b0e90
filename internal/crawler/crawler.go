package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"knowfounders/internal/models"
)

// DefaultUserAgent identifies the auditor when no agent is chosen.
const DefaultUserAgent = "knowfounders-audit/1.0 (+https://knowfounders.com)"

var ErrNotHTML = errors.New("non-html content")

// Response is one fetched page.
type Response struct {
	Body        []byte
	FinalURL    string
	ContentType string
	StatusCode  int
	Elapsed     time.Duration
	// Load is the browser-measured load time; zero when not rendered.
	Load time.Duration
}

type HTTPClient struct {
	client  *http.Client
	sizeCap int64
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap: sizeCap,
	}
}

// Client exposes the underlying http.Client for robots.txt lookups.
func (h *HTTPClient) Client() *http.Client { return h.client }

// Fetch GETs rawURL presenting userAgent and reads at most sizeCap bytes.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL, userAgent string) (*Response, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	// an omitted content type is allowed
	if mediaType != "" && !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return nil, ErrNotHTML
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Body:        data,
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
		Elapsed:     time.Since(start),
	}, nil
}

// FetchWithPolicy applies the policy's per-attempt timeout and retry budget.
// Client errors (4xx) and non-HTML responses are not retried.
func (h *HTTPClient) FetchWithPolicy(ctx context.Context, rawURL, userAgent string, p models.OptimizationPolicy) (*Response, error) {
	attempts := p.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		attemptCtx := ctx
		cancel := func() {}
		if p.TimeoutMs > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, time.Duration(p.TimeoutMs)*time.Millisecond)
		}
		resp, err := h.Fetch(attemptCtx, rawURL, userAgent)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("http status %d", e.Code) }

func retryable(err error) bool {
	if errors.Is(err, ErrNotHTML) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return !strings.HasPrefix(err.Error(), "invalid url")
}
