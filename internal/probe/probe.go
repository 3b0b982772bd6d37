// Package probe issues the timed HTTP GET behind every check. A probe is
// stateless: any HTTP response, whatever its status code, is a result, and
// only transport-level failures (timeout, refused connection, DNS, TLS)
// surface as an error string.
package probe

import (
	"context"
	"net/http"
	"time"
)

type Target struct {
	URL     string
	Timeout int // milliseconds
	Headers map[string]string
}

type Result struct {
	StatusCode   *int
	ResponseTime *float64 // milliseconds to response headers
	Err          string   // set iff no response was received
}

// Received reports whether the target answered at all.
func (r Result) Received() bool { return r.StatusCode != nil }

type Prober interface {
	Probe(ctx context.Context, target Target) Result
}

type HTTPProber struct{}

func NewHTTPProber() *HTTPProber { return &HTTPProber{} }

func (p *HTTPProber) Probe(ctx context.Context, target Target) Result {
	client := &http.Client{
		Timeout: time.Duration(target.Timeout) * time.Millisecond,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)

	if err != nil {
		return Result{Err: err.Error()}
	}

	for key, value := range target.Headers {
		req.Header.Add(key, value)
	}

	start := time.Now()

	resp, err := client.Do(req)

	if err != nil {
		return Result{Err: err.Error()}
	}

	defer resp.Body.Close()

	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	code := resp.StatusCode

	return Result{StatusCode: &code, ResponseTime: &elapsed}
}
