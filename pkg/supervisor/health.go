package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// prober issues periodic GET requests against a supervised child's health
// endpoint and reports pass/fail. A 200 status is the only passing
// response; redirects are followed using the client's default policy, not
// treated as a distinct outcome.
type prober struct {
	client *http.Client
	url    string
}

func newProber(cfg Config) (*prober, error) {
	transport := &http.Transport{}
	if cfg.TLS != nil {
		tlsConfig, err := cfg.TLS.ClientTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("supervisor: building probe client TLS config: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &prober{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.ProbeTimeout,
		},
		url: cfg.probeURL(),
	}, nil
}

// probe performs one health check, returning nil iff the endpoint answered
// 200 within the configured timeout.
func (p *prober) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("supervisor: building probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("supervisor: probing %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supervisor: probe %s returned status %d", p.url, resp.StatusCode)
	}
	return nil
}

// runProbeLoop issues probe() every interval until ctx is cancelled,
// reporting each outcome through report. It does not itself decide
// restarts or state transitions; that belongs to the Supervisor.
func runProbeLoop(ctx context.Context, p *prober, interval time.Duration, report func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(p.probe(ctx))
		}
	}
}
