package broker

import (
	"encoding/json"
	"io"
	"net/http"

	"feasibility-backend/internal/pkg/errs"
)

const maxResponseBody = 4 << 20

// ReadSuccess reads the body of a 2xx response and closes it.
// Any other status is reported as a communication error carrying the status code.
func ReadSuccess(resp *http.Response, op string) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, Communication(err, op+": failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Communication(errs.Newf("unexpected status %d", resp.StatusCode), op)
	}
	return body, nil
}

type headerTransport struct {
	base  http.RoundTripper
	apply func(*http.Request)
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	t.apply(r)
	return t.base.RoundTrip(r)
}

func baseTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		return http.DefaultTransport
	}
	return base
}

// BasicAuthTransport sets HTTP basic credentials on every request.
func BasicAuthTransport(username, password string, base http.RoundTripper) http.RoundTripper {
	return &headerTransport{
		base:  baseTransport(base),
		apply: func(r *http.Request) { r.SetBasicAuth(username, password) },
	}
}

// APIKeyTransport sends a static key as bearer token.
func APIKeyTransport(key string, base http.RoundTripper) http.RoundTripper {
	return &headerTransport{
		base:  baseTransport(base),
		apply: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+key) },
	}
}

// IntValue converts a decoded JSON number to int.
func IntValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
