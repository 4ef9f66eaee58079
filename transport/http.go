// Package transport adapts host HTTP requests into the pipeline's
// transport-neutral request form. Routing stays with the host; this
// package only flattens what the pipeline inspects.
package transport

import (
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/goliatone/go-receivers/core"
)

// DefaultMaxBodyBytes bounds how much of a request body the adapter reads.
const DefaultMaxBodyBytes int64 = 1 << 20

// FromHTTPRequest flattens an *http.Request into a core.InboundRequest.
// The body is read up to maxBodyBytes (DefaultMaxBodyBytes when <= 0) and
// the original body is consumed; callers that need it again should use
// the returned Body slice.
func FromHTTPRequest(
	r *http.Request,
	receiver string,
	instanceID string,
	maxBodyBytes int64,
) (core.InboundRequest, error) {
	if r == nil {
		return core.InboundRequest{}, transportBadInput("transport: http request is required", nil)
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	query := map[string]string{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	var body []byte
	if r.Body != nil {
		limited := io.LimitReader(r.Body, maxBodyBytes+1)
		read, err := io.ReadAll(limited)
		if err != nil {
			return core.InboundRequest{}, transportWrap(err, "transport: read request body", map[string]any{
				"receiver": receiver,
			})
		}
		if int64(len(read)) > maxBodyBytes {
			return core.InboundRequest{}, transportPayloadTooLarge(
				"transport: request body exceeds the configured limit",
				map[string]any{"receiver": receiver, "limit_bytes": maxBodyBytes},
			)
		}
		body = read
	}

	return core.InboundRequest{
		Receiver:    strings.TrimSpace(receiver),
		InstanceID:  strings.TrimSpace(instanceID),
		Method:      r.Method,
		Secure:      requestIsSecure(r),
		Loopback:    requestIsLoopback(r),
		ContentType: r.Header.Get("Content-Type"),
		Headers:     headers,
		Query:       query,
		Body:        body,
	}, nil
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
	if idx := strings.Index(proto, ","); idx >= 0 {
		proto = strings.TrimSpace(proto[:idx])
	}
	return proto == "https"
}

func requestIsLoopback(r *http.Request) bool {
	host := r.RemoteAddr
	if splitHost, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = splitHost
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
