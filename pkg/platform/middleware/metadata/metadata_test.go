package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"landrec/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "10.0.0.7, 172.16.0.1"}, remoteAddr: "127.0.0.1:5000", expected: "10.0.0.7"},
		{name: "real ip header", headers: map[string]string{"X-Real-IP": " 10.0.0.8 "}, remoteAddr: "127.0.0.1:5000", expected: "10.0.0.8"},
		{name: "ipv4 remote addr", remoteAddr: "192.168.1.20:41000", expected: "192.168.1.20"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:41000", expected: "::1"},
		{name: "no address", remoteAddr: "", expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var got string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.1.2.3", got)
}
