// Package supervisor runs one external process as a supervised child: it
// spawns the executable, captures its stdout/stderr into a bounded ring
// buffer, probes an HTTP(S) health endpoint on an interval, and restarts
// the child within a capped, stability windowed budget when probes fail or
// it exits unexpectedly.
//
// A Supervisor is a standalone core with no knowledge of the gateway it is
// typically composed with; the only contract between the two is the
// GatewayBaseURLEnvVar environment variable a host runtime injects into
// Config before calling New.
package supervisor
