package gateway

import (
	"fmt"
	"time"

	"github.com/giantswarm/workergateway/pkg/tlsmaterial"
)

// Config is the immutable value a Listener is built from. Once a Listener
// has been constructed there is no way to mutate its configuration; a
// different configuration means a new Listener.
type Config struct {
	// Host and Port are the bind address. Port 0 lets the kernel choose an
	// ephemeral port, which BoundAddr() then reports.
	Host string
	Port int

	// TLS, if non-nil, upgrades the listener to HTTPS. The supervisor's
	// health prober does not read it; HTTPS probing uses the supervisor's
	// own Config.TLS.
	TLS tlsmaterial.Provider

	// MaxRequestBodyBytes bounds the body read for every endpoint; requests
	// whose body exceeds this are rejected with 413 before the handler or
	// queue sees them.
	MaxRequestBodyBytes int64

	// HandlerDeadline bounds how long a synchronous handler may run before
	// the dispatcher gives up and returns 504.
	HandlerDeadline time.Duration

	// ShutdownGrace bounds how long Stop waits for in-flight requests to
	// finish before forcibly closing connections.
	ShutdownGrace time.Duration

	// CORSAllowedOrigins, if non-empty, enables CORS response headers and
	// OPTIONS preflight handling for the listed origins. "*" allows any
	// origin.
	CORSAllowedOrigins []string
}

// DefaultConfig returns sensible defaults; callers override only the fields
// they care about.
func DefaultConfig() Config {
	return Config{
		Host:                "127.0.0.1",
		Port:                0,
		MaxRequestBodyBytes: 1 << 20, // 1 MiB
		HandlerDeadline:     5 * time.Second,
		ShutdownGrace:       10 * time.Second,
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("gateway: invalid port %d", c.Port)
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("gateway: MaxRequestBodyBytes must be positive")
	}
	if c.HandlerDeadline <= 0 {
		return fmt.Errorf("gateway: HandlerDeadline must be positive")
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("gateway: ShutdownGrace must not be negative")
	}
	return nil
}

func (c Config) corsEnabled() bool {
	return len(c.CORSAllowedOrigins) > 0
}

func (c Config) corsAllowsOrigin(origin string) (string, bool) {
	for _, allowed := range c.CORSAllowedOrigins {
		if allowed == "*" {
			return "*", true
		}
		if allowed == origin {
			return origin, true
		}
	}
	return "", false
}
