package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProber issues GET requests against the application entry point
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates a prober whose requests never follow redirects, so a
// 302 to a login page is reported as such.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Close closes the HTTP client's connection pool
func (h *HTTPProber) Close() {
	if h.client != nil {
		h.client.CloseIdleConnections()
	}
}

// RootURL joins base and "/".
func RootURL(base string) string {
	return strings.TrimRight(base, "/") + "/"
}

// ExpectStatus performs a GET on url and fails unless the response status
// equals expected.
func (h *HTTPProber) ExpectStatus(ctx context.Context, url string, expected int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Failure{Kind: ErrConnection, Msg: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return connectionFailure(err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != expected {
		return &Failure{
			Kind: ErrValueMismatch,
			Msg:  fmt.Sprintf("Expected response status code [%d] but received %d.", expected, resp.StatusCode),
		}
	}
	return nil
}
