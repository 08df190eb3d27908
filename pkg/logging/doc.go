// Package logging defines the structured logger both the gateway and
// supervisor cores accept from their host runtime, plus a slog-backed
// default implementation for standalone use (the demo binary under cmd/).
//
// Neither core owns its own logging sink: the host runtime that embeds
// them supplies a Logger value. Every call is tagged with a subsystem name
// ("Dispatcher", "HealthProbe", "LogCapture", ...) so a host runtime can
// filter or route by component without parsing message text.
//
// # Standalone use
//
//	logging.InitDefault(logging.LevelInfo, os.Stdout)
//	logger := logging.Default()
//	logger.Info("Listener", "bound to %s", addr)
package logging
