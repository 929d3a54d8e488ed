// Package httpclient builds the outbound HTTP client shared by fetchers, model providers and delivery.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New returns a client whose transport records a client span per request.
func New(timeout time.Duration) *http.Client {
	return Wrap(http.DefaultTransport, timeout)
}

// Wrap instruments base; a nil base uses http.DefaultTransport.
func Wrap(base http.RoundTripper, timeout time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Host
			}),
		),
	}
}
