// Package tlsmaterial defines the TLS material provider collaborator the
// gateway listener and the supervisor's health prober accept from outside
// collaborator. Its presence upgrades the
// listener to HTTPS-only and the probe to HTTPS.
//
// FileProvider is a file-based default implementation that additionally
// watches its certificate and key files with fsnotify and reloads them on
// change, so a host runtime can rotate certificates without restarting the
// gateway. This only replaces the externally supplied key material; it does
// not reopen the gateway's own immutable gateway.Config value.
package tlsmaterial
