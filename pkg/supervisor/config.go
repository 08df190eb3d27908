package supervisor

import (
	"fmt"
	"time"

	"github.com/giantswarm/workergateway/pkg/tlsmaterial"
)

// GatewayBaseURLEnvVar is the well-known environment variable the
// supervisor sets on its child process naming the gateway's base URL. It
// is the sole contract between the two cores when they are composed by a
// host runtime.
const GatewayBaseURLEnvVar = "GATEWAY_BASE_URL"

// Config is the immutable value a Supervisor is built from.
type Config struct {
	ExecutablePath     string
	ArgumentVector     []string
	EnvironmentOverlay map[string]string

	// Host/Port/ProbePath address the child's health endpoint: GET
	// <protocol>://Host:Port/ProbePath, HTTPS iff TLS is set. An empty
	// ProbePath disables probing entirely: the child is marked
	// RUNNING_HEALTHY as soon as it spawns, and only an unexpected exit
	// moves it to RUNNING_UNHEALTHY.
	Host      string
	Port      int
	ProbePath string

	ProbeInterval time.Duration
	ProbeTimeout  time.Duration

	AutoRestart        bool
	MaxRestartAttempts int
	StabilityPeriod    time.Duration
	LogBufferSize      int

	// TLS, if set, switches probing to HTTPS using its client trust store
	// and is not otherwise used by the supervisor.
	TLS tlsmaterial.Provider

	// GatewayBaseURL is injected into the child's environment under
	// GatewayBaseURLEnvVar.
	GatewayBaseURL string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "127.0.0.1",
		ProbePath:          "/healthz",
		ProbeInterval:      10 * time.Second,
		ProbeTimeout:       2 * time.Second,
		AutoRestart:        true,
		MaxRestartAttempts: 5,
		StabilityPeriod:    5 * time.Minute,
		LogBufferSize:      1000,
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	if c.ExecutablePath == "" {
		return fmt.Errorf("supervisor: ExecutablePath must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("supervisor: invalid port %d", c.Port)
	}
	if c.ProbePath != "" {
		if c.ProbeInterval <= 0 {
			return fmt.Errorf("supervisor: ProbeInterval must be positive")
		}
		if c.ProbeTimeout <= 0 {
			return fmt.Errorf("supervisor: ProbeTimeout must be positive")
		}
	}
	if c.MaxRestartAttempts < 0 {
		return fmt.Errorf("supervisor: MaxRestartAttempts must not be negative")
	}
	if c.StabilityPeriod <= 0 {
		return fmt.Errorf("supervisor: StabilityPeriod must be positive")
	}
	if c.LogBufferSize <= 0 {
		return fmt.Errorf("supervisor: LogBufferSize must be positive")
	}
	return nil
}

func (c Config) probeScheme() string {
	if c.TLS != nil {
		return "https"
	}
	return "http"
}

func (c Config) probeURL() string {
	return fmt.Sprintf("%s://%s:%d%s", c.probeScheme(), c.Host, c.Port, c.ProbePath)
}
