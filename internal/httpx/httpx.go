// Package httpx builds the HTTP clients used for catalog and mark downloads.
package httpx

import (
	"errors"
	"net/http"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 2
)

// Transport sets a User-Agent and retries replayable requests on transport errors.
// HTTP status codes are never retried; callers decide what a non-2xx means.
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
	// RetryMax is the number of retries after the first attempt.
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	retries := max(t.RetryMax, 0)
	if !canRetry {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}
		resp, err := base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewClient returns a client with bounded retries, userAgent on every request, and
// the given overall timeout (zero selects the default).
func NewClient(userAgent string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &http.Client{
		Transport: &Transport{Base: base, UserAgent: userAgent, RetryMax: defaultRetryMax},
		Timeout:   timeout,
	}
}
