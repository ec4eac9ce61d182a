package telemetry

import (
	"net/http"
	"strconv"
)

type instrumentedTransport struct {
	next    http.RoundTripper
	metrics *Metrics
}

// Transport counts upstream responses by host, method and status code.
// Failed round trips are counted with code 0.
func (m *Metrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &instrumentedTransport{next: next, metrics: m}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	t.metrics.UpstreamStatusCode.WithLabelValues(req.URL.Host, req.Method, strconv.Itoa(code)).Inc()

	return resp, err
}
