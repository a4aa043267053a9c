package reqinfo

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointName(t *testing.T) {
	assert.Equal(t, "decode", EndpointName("/api/v1/vin/decode"))
	assert.Equal(t, "decode", EndpointName("/api/v1/vin/decode/"))
	assert.Equal(t, "health", EndpointName("/health"))
	assert.Equal(t, "", EndpointName("/"))
}

func TestClientIP_HeaderPriorityAndPrivateExclusion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4567"

	// No headers: falls back to the connection peer.
	assert.Equal(t, "10.1.2.3", ClientIP(req))

	// Private forwarded hops are skipped, first public one wins.
	req.Header.Set("X-Forwarded-For", "192.168.1.5, 203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	// A higher-priority header beats X-Forwarded-For.
	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "2001:db8::1", ClientIP(req))
}

func TestBuild_SanitizesAndRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := `{"vin":"MR2B19F33H1007504","api_key":"super-secret","password":"hunter2"}`
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost,
		"/api/v1/vin/decode?token=abc&page=2", bytes.NewBufferString(body))
	c.Request.Header.Set("User-Agent", "test-agent")

	payload := Build(c)

	assert.Equal(t, "decode", payload.Endpoint)
	assert.Equal(t, "MR2B19F33H1007504", payload.Body["vin"])
	assert.Equal(t, "[REDACTED]", payload.Body["api_key"])
	assert.Equal(t, "[REDACTED]", payload.Body["password"])
	assert.Equal(t, "[REDACTED]", payload.Query["token"])
	assert.Equal(t, "2", payload.Query["page"])
	assert.Equal(t, "test-agent", payload.UserAgent)
	assert.NotZero(t, payload.Timestamp)

	// The body must still be readable by downstream binders.
	restored, err := io.ReadAll(c.Request.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(restored))
}
