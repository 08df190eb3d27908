// Package config loads the demo binary's YAML configuration file and
// converts it into the gateway and supervisor cores' own immutable Config
// values. Neither core depends on this package; it exists solely for
// cmd/workergatewayd, which is free to build gateway.Config/supervisor.Config
// programmatically instead.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/workergateway/pkg/gateway"
	"github.com/giantswarm/workergateway/pkg/logging"
	"github.com/giantswarm/workergateway/pkg/supervisor"
	"github.com/giantswarm/workergateway/pkg/tlsmaterial"
)

// Load reads and parses a YAML file at path, returning the raw FileConfig.
// A missing file is not an error: it returns an empty FileConfig so callers
// can layer it over DefaultConfig() values.
func Load(path string) (FileConfig, error) {
	var fc FileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Default().Info("ConfigLoader", "no config file found at %s, using defaults", path)
			return fc, nil
		}
		return fc, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	logging.Default().Info("ConfigLoader", "loaded configuration from %s", path)
	return fc, nil
}

// GatewayConfig converts the file section into a gateway.Config, layering
// it over gateway.DefaultConfig() for any field left zero.
func (fc FileConfig) GatewayConfig() (gateway.Config, error) {
	cfg := gateway.DefaultConfig()
	g := fc.Gateway

	if g.Host != "" {
		cfg.Host = g.Host
	}
	if g.Port != 0 {
		cfg.Port = g.Port
	}
	if g.MaxRequestBodyBytes != 0 {
		cfg.MaxRequestBodyBytes = g.MaxRequestBodyBytes
	}
	if g.HandlerDeadline != "" {
		d, err := time.ParseDuration(g.HandlerDeadline)
		if err != nil {
			return gateway.Config{}, fmt.Errorf("config: gateway.handlerDeadline: %w", err)
		}
		cfg.HandlerDeadline = d
	}
	if g.ShutdownGrace != "" {
		d, err := time.ParseDuration(g.ShutdownGrace)
		if err != nil {
			return gateway.Config{}, fmt.Errorf("config: gateway.shutdownGrace: %w", err)
		}
		cfg.ShutdownGrace = d
	}
	if len(g.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = g.CORSAllowedOrigins
	}

	if g.TLSCertFile != "" && g.TLSKeyFile != "" {
		provider, err := tlsmaterial.NewFileProvider(g.TLSCertFile, g.TLSKeyFile, g.TLSCAFile, logging.Default())
		if err != nil {
			return gateway.Config{}, fmt.Errorf("config: gateway TLS material: %w", err)
		}
		cfg.TLS = provider
	}

	return cfg, cfg.Validate()
}

// SupervisorConfig converts the file section into a supervisor.Config,
// layering it over supervisor.DefaultConfig() for any field left zero. The
// caller is responsible for setting GatewayBaseURL once the gateway's bound
// address is known.
func (fc FileConfig) SupervisorConfig() (supervisor.Config, error) {
	cfg := supervisor.DefaultConfig()
	s := fc.Supervisor

	if s.ExecutablePath == "" {
		return supervisor.Config{}, fmt.Errorf("config: supervisor.executablePath is required")
	}
	cfg.ExecutablePath = s.ExecutablePath
	cfg.ArgumentVector = s.ArgumentVector
	cfg.EnvironmentOverlay = s.EnvironmentOverlay

	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.ProbePath != "" {
		cfg.ProbePath = s.ProbePath
	}
	if s.ProbeInterval != "" {
		d, err := time.ParseDuration(s.ProbeInterval)
		if err != nil {
			return supervisor.Config{}, fmt.Errorf("config: supervisor.probeInterval: %w", err)
		}
		cfg.ProbeInterval = d
	}
	if s.ProbeTimeout != "" {
		d, err := time.ParseDuration(s.ProbeTimeout)
		if err != nil {
			return supervisor.Config{}, fmt.Errorf("config: supervisor.probeTimeout: %w", err)
		}
		cfg.ProbeTimeout = d
	}
	if s.AutoRestart != nil {
		cfg.AutoRestart = *s.AutoRestart
	}
	if s.MaxRestartAttempts != 0 {
		cfg.MaxRestartAttempts = s.MaxRestartAttempts
	}
	if s.StabilityPeriod != "" {
		d, err := time.ParseDuration(s.StabilityPeriod)
		if err != nil {
			return supervisor.Config{}, fmt.Errorf("config: supervisor.stabilityPeriod: %w", err)
		}
		cfg.StabilityPeriod = d
	}
	if s.LogBufferSize != 0 {
		cfg.LogBufferSize = s.LogBufferSize
	}

	return cfg, cfg.Validate()
}
