package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"contactlink/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "first forwarded address wins",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remoteAddr: "10.0.0.2:1234",
			expected:   "203.0.113.7",
		},
		{
			name:       "real ip header",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.4 "},
			remoteAddr: "10.0.0.2:1234",
			expected:   "198.51.100.4",
		},
		{
			name:       "remote addr ipv4",
			remoteAddr: "192.0.2.1:5555",
			expected:   "192.0.2.1",
		},
		{
			name:       "remote addr ipv6",
			remoteAddr: "[::1]:5555",
			expected:   "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/identify", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/identify", nil)
	req.RemoteAddr = "192.0.2.9:4000"
	req.Header.Set("User-Agent", "checkout/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.9", gotIP)
	assert.Equal(t, "checkout/1.0", gotUA)
}
