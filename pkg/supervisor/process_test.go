package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, script string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ExecutablePath = "/bin/sh"
	cfg.ArgumentVector = []string{"-c", script}
	cfg.Port = 8080
	return cfg
}

func TestSpawn_CapturesOutput(t *testing.T) {
	cfg := testConfig(t, "echo from-stdout; echo from-stderr 1>&2")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := spawn(ctx, cfg)
	require.NoError(t, err)

	buf := NewLogBuffer(10)
	done := make(chan struct{}, 2)
	go func() { captureStream(proc.stdout, StreamStdout, buf); done <- struct{}{} }()
	go func() { captureStream(proc.stderr, StreamStderr, buf); done <- struct{}{} }()
	<-done
	<-done
	_ = proc.cmd.Wait()

	lines := buf.Tail(10)
	require.Len(t, lines, 2)
	texts := []string{lines[0].Text, lines[1].Text}
	assert.Contains(t, texts, "from-stdout")
	assert.Contains(t, texts, "from-stderr")
}

func TestSpawn_InjectsGatewayBaseURL(t *testing.T) {
	cfg := testConfig(t, "printenv GATEWAY_BASE_URL")
	cfg.GatewayBaseURL = "http://127.0.0.1:9999"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := spawn(ctx, cfg)
	require.NoError(t, err)

	buf := NewLogBuffer(10)
	captureStream(proc.stdout, StreamStdout, buf)
	_ = proc.cmd.Wait()

	tail := buf.Tail(1)
	require.Len(t, tail, 1)
	assert.Equal(t, "http://127.0.0.1:9999", tail[0].Text)
}

func TestSpawn_InjectsEnvironmentOverlay(t *testing.T) {
	cfg := testConfig(t, "printenv CUSTOM_VAR")
	cfg.EnvironmentOverlay = map[string]string{"CUSTOM_VAR": "overlay-value"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := spawn(ctx, cfg)
	require.NoError(t, err)

	buf := NewLogBuffer(10)
	captureStream(proc.stdout, StreamStdout, buf)
	_ = proc.cmd.Wait()

	tail := buf.Tail(1)
	require.Len(t, tail, 1)
	assert.Equal(t, "overlay-value", tail[0].Text)
}

func TestSpawn_InvalidExecutableReturnsSpawnError(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.ExecutablePath = "/no/such/executable-binary"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := spawn(ctx, cfg)
	require.Error(t, err)
	var spawnErr *SpawnError
	assert.ErrorAs(t, err, &spawnErr)
}

func TestChildProcess_TerminateKillsRunningProcess(t *testing.T) {
	cfg := testConfig(t, "sleep 30")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := spawn(ctx, cfg)
	require.NoError(t, err)

	go captureStream(proc.stdout, StreamStdout, NewLogBuffer(1))
	go captureStream(proc.stderr, StreamStderr, NewLogBuffer(1))

	require.NoError(t, proc.terminate())
	err = proc.cmd.Wait()
	assert.Error(t, err)
}
