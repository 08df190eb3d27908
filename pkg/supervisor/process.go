package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// execCommandContext is a variable so tests can substitute a fake child
// process binary without touching PATH.
var execCommandContext = exec.CommandContext

// childProcess wraps a running *exec.Cmd together with the pipes its log
// capture goroutines read from.
type childProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// spawn starts the configured executable with its argument vector and
// environment overlay, plus the well-known gateway base URL variable.
// stdout/stderr are piped, not inherited, so the supervisor's log capture
// owns the only reader of each stream.
func spawn(ctx context.Context, cfg Config) (*childProcess, error) {
	cmd := execCommandContext(ctx, cfg.ExecutablePath, cfg.ArgumentVector...)
	cmd.Env = buildChildEnv(cfg)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{ExecutablePath: cfg.ExecutablePath, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{ExecutablePath: cfg.ExecutablePath, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{ExecutablePath: cfg.ExecutablePath, Err: err}
	}

	return &childProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func buildChildEnv(cfg Config) []string {
	env := os.Environ()
	for k, v := range cfg.EnvironmentOverlay {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	if cfg.GatewayBaseURL != "" {
		env = append(env, fmt.Sprintf("%s=%s", GatewayBaseURLEnvVar, cfg.GatewayBaseURL))
	}
	return env
}

// alive reports whether Wait has not yet returned for the child. It does
// not block; a process that has exited but has not yet been reaped by Wait
// is still reported as alive.
func (p *childProcess) alive() bool {
	if p.cmd.ProcessState != nil {
		return false
	}
	return true
}

// terminate signals the child to stop. It does not reap the process;
// exactly one goroutine per spawned child calls cmd.Wait, since calling it
// more than once is invalid.
func (p *childProcess) terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && p.alive() {
		return err
	}
	return nil
}
