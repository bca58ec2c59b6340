package spotify

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimitedTransport delays requests to stay within the API rate limit.
type rateLimitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func newRateLimitedTransport(base http.RoundTripper, perSecond float64, burst int) *rateLimitedTransport {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimitedTransport{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		base:    base,
	}
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
