package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	open := New(Options{})
	strict := New(Options{BlockPrivateIP: true})

	tests := []struct {
		url       string
		openErr   bool
		strictErr bool
	}{
		{"https://mandaten.lblod.info/sync/files", false, false},
		{"http://localhost:8890/sparql", false, true},
		{"http://127.0.0.1/sparql", false, true},
		{"http://10.0.0.5/sparql", false, true},
		{"ftp://example.org/file", true, true},
		{"http:///nohost", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := open.ValidateURL(tt.url)
			assert.Equal(t, tt.openErr, err != nil, "open client: %v", err)
			_, err = strict.ValidateURL(tt.url)
			assert.Equal(t, tt.strictErr, err != nil, "strict client: %v", err)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP(net.ParseIP("192.168.1.1")))
	assert.True(t, isPrivateIP(net.ParseIP("::1")))
	assert.True(t, isPrivateIP(net.ParseIP("169.254.169.254")))
	assert.False(t, isPrivateIP(net.ParseIP("8.8.8.8")))
}

func TestDoSetsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	c := New(Options{Timeout: 5 * time.Second, UserAgent: "deltaconsumer/test"})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "deltaconsumer/test", got)
}

func TestMaxRedirects(t *testing.T) {
	var server *httptest.Server
	hops := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", server.URL, hops), http.StatusFound)
	}))
	defer server.Close()

	c := New(Options{MaxRedirects: 3})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 3 redirects")
}

func TestPacingHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := New(Options{RequestsPerSecond: 0.001})

	first, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(first)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	second, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait for request slot")
}
