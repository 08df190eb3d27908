package supervisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configForServer(t *testing.T, server *httptest.Server, path string) Config {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host = u.Hostname()
	cfg.Port = port
	cfg.ProbePath = path
	cfg.ProbeTimeout = time.Second
	return cfg
}

func TestProber_PassesOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := newProber(configForServer(t, server, "/healthz"))
	require.NoError(t, err)

	assert.NoError(t, p.probe(context.Background()))
}

func TestProber_FailsOnNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := newProber(configForServer(t, server, "/healthz"))
	require.NoError(t, err)

	assert.Error(t, p.probe(context.Background()))
}

// Probes follow redirects using the client's default policy rather than
// treating a redirect as a distinct or failing outcome.
func TestProber_FollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			http.Redirect(w, r, "/healthz-target", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := newProber(configForServer(t, server, "/healthz"))
	require.NoError(t, err)

	assert.NoError(t, p.probe(context.Background()))
}

func TestProber_FailsOnUnreachableHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ProbeTimeout = 500 * time.Millisecond

	p, err := newProber(cfg)
	require.NoError(t, err)

	assert.Error(t, p.probe(context.Background()))
}

func TestRunProbeLoop_ReportsUntilCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := newProber(configForServer(t, server, "/healthz"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 10)
	go runProbeLoop(ctx, p, 10*time.Millisecond, func(err error) { results <- err })

	for i := 0; i < 3; i++ {
		select {
		case err := <-results:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("expected a probe result")
		}
	}
	cancel()
}
