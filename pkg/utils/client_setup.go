package utils

import (
	"net/http"
	"time"
)

const defaultUserAgent = "paychat/0.1.0"

type defaultHeadersTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *defaultHeadersTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" || req.Header.Get("Accept") == "" {
		req = req.Clone(req.Context())
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", t.userAgent)
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client with an explicit per-request timeout that
// stamps a User-Agent and a JSON Accept header on outgoing requests.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &defaultHeadersTransport{
			base:      http.DefaultTransport,
			userAgent: defaultUserAgent,
		},
	}
}
