package status

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/burrow/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintPools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case constants.APIPools:
			w.Write([]byte(`[{"id":1,"name":"tank"}]`))
		case constants.APIPools + "/1/status":
			w.Write([]byte(`[{"id":1,"name":"tank","type":"root","status":"DEGRADED","read":0,"write":0,"cksum":1234,
				"children":[{"id":100,"name":"mirror-0","type":"mirror","status":"DEGRADED","read":0,"write":0,"cksum":0,
				"children":[{"id":101,"name":"sda","type":"disk","status":"ONLINE","read":0,"write":0,"cksum":0}]}]}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := httpclient.NewClientConfig()
	cfg.BaseURL = srv.URL
	cfg.RetryCount = 0

	var out bytes.Buffer
	require.NoError(t, printPools(context.Background(), httpclient.NewClient(cfg), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "tank "))
	assert.Contains(t, lines[0], "1,234")
	assert.True(t, strings.HasPrefix(lines[1], "  mirror-0"))
	assert.True(t, strings.HasPrefix(lines[2], "    sda"))
}

func TestPrintPoolsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := httpclient.NewClientConfig()
	cfg.BaseURL = srv.URL

	var out bytes.Buffer
	require.NoError(t, printPools(context.Background(), httpclient.NewClient(cfg), &out))
	assert.Equal(t, "No pools registered\n", out.String())
}
