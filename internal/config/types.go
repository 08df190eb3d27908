package config

// FileConfig is the on-disk, YAML-friendly shape of the demo binary's
// configuration. It mirrors gateway.Config and supervisor.Config but uses
// plain strings for durations and file paths for TLS material, since
// neither of those types round-trips through YAML directly.
type FileConfig struct {
	Gateway    GatewaySection    `yaml:"gateway"`
	Supervisor SupervisorSection `yaml:"supervisor"`
}

// GatewaySection configures the gateway core.
type GatewaySection struct {
	Host                string   `yaml:"host,omitempty"`
	Port                int      `yaml:"port,omitempty"`
	MaxRequestBodyBytes int64    `yaml:"maxRequestBodyBytes,omitempty"`
	HandlerDeadline     string   `yaml:"handlerDeadline,omitempty"`
	ShutdownGrace       string   `yaml:"shutdownGrace,omitempty"`
	CORSAllowedOrigins  []string `yaml:"corsAllowedOrigins,omitempty"`

	// TLSCertFile/TLSKeyFile/TLSCAFile, if set, build a
	// tlsmaterial.FileProvider watching those paths for rotation. Leave
	// all three empty to serve plain HTTP.
	TLSCertFile string `yaml:"tlsCertFile,omitempty"`
	TLSKeyFile  string `yaml:"tlsKeyFile,omitempty"`
	TLSCAFile   string `yaml:"tlsCaFile,omitempty"`
}

// SupervisorSection configures the supervisor core.
type SupervisorSection struct {
	ExecutablePath     string            `yaml:"executablePath"`
	ArgumentVector     []string          `yaml:"argumentVector,omitempty"`
	EnvironmentOverlay map[string]string `yaml:"environmentOverlay,omitempty"`

	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	ProbePath string `yaml:"probePath,omitempty"`

	ProbeInterval string `yaml:"probeInterval,omitempty"`
	ProbeTimeout  string `yaml:"probeTimeout,omitempty"`

	AutoRestart        *bool  `yaml:"autoRestart,omitempty"`
	MaxRestartAttempts int    `yaml:"maxRestartAttempts,omitempty"`
	StabilityPeriod    string `yaml:"stabilityPeriod,omitempty"`
	LogBufferSize      int    `yaml:"logBufferSize,omitempty"`
}
