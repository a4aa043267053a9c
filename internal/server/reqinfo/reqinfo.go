package reqinfo

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Payload is the structured description of one request, attached to the
// request scope for audit logging. It is built once, concurrently with
// vendor resolution, and reused by every downstream consumer.
type Payload struct {
	Endpoint  string            `json:"endpoint"`
	Body      map[string]any    `json:"body,omitempty"`
	Query     map[string]string `json:"query,omitempty"`
	ClientIP  string            `json:"client_ip"`
	UserAgent string            `json:"user_agent"`
	Timestamp int64             `json:"timestamp"`
}

// Field names redacted from logged bodies and query strings.
var sensitiveFields = []string{
	"password",
	"password_confirmation",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"secret",
	"access_token",
}

const redacted = "[REDACTED]"

// Headers consulted for the client address, in priority order.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
}

func Build(c *gin.Context) Payload {
	return Payload{
		Endpoint:  EndpointName(c.Request.URL.Path),
		Body:      sanitizedBody(c),
		Query:     sanitizedQuery(c),
		ClientIP:  ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
		Timestamp: time.Now().Unix(),
	}
}

// EndpointName is the last path segment, e.g. "/api/v1/vin/decode" ->
// "decode".
func EndpointName(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func (p Payload) JSON() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func isSensitive(field string) bool {
	field = strings.ToLower(field)
	for _, s := range sensitiveFields {
		if field == s {
			return true
		}
	}
	return false
}

// sanitizedBody reads and restores the request body so downstream
// handlers can still bind it. Non-JSON bodies fall back to parsed form
// values.
func sanitizedBody(c *gin.Context) map[string]any {
	if c.Request.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	for field := range body {
		if isSensitive(field) {
			body[field] = redacted
		}
	}
	return body
}

func sanitizedQuery(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	if len(values) == 0 {
		return nil
	}
	query := make(map[string]string, len(values))
	for field := range values {
		if isSensitive(field) {
			query[field] = redacted
		} else {
			query[field] = values.Get(field)
		}
	}
	return query
}

// ClientIP scans the forwarding headers in priority order and returns the
// first public address found, falling back to the connection peer.
// Private and reserved ranges are skipped so spoofable intermediate hops
// do not leak into audit rows.
func ClientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			candidate := strings.TrimSpace(part)
			ip := net.ParseIP(candidate)
			if ip == nil {
				continue
			}
			if isPublicIP(ip) {
				return candidate
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified())
}
