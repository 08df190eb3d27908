// Package runtime composes the gateway and supervisor cores into one
// process: it starts the gateway listener, computes its bound base URL,
// and injects that URL into the supervisor's child environment before
// spawning it. This is the minimal host runtime a caller needs — something
// that owns configuration, logging, and the combined state of both cores;
// it is also the glue the standalone demo binary under cmd/workergatewayd
// uses.
package runtime

import (
	"context"
	"fmt"

	"github.com/giantswarm/workergateway/pkg/gateway"
	"github.com/giantswarm/workergateway/pkg/logging"
	"github.com/giantswarm/workergateway/pkg/supervisor"
)

// Runtime owns one gateway Listener and one Supervisor, wired together via
// the well-known GATEWAY_BASE_URL contract.
type Runtime struct {
	gatewayConfig    gateway.Config
	supervisorConfig supervisor.Config
	registry         *gateway.Registry
	logger           logging.Logger
	onStatus         supervisor.StatusUpdateFunc

	listener   *gateway.Listener
	supervisor *supervisor.Supervisor
}

// New builds a Runtime from validated configs and a populated registry. The
// registry should already have its endpoints registered; Runtime does not
// mutate it.
func New(gatewayConfig gateway.Config, registry *gateway.Registry, supervisorConfig supervisor.Config, logger logging.Logger, onStatus supervisor.StatusUpdateFunc) *Runtime {
	if logger == nil {
		logger = logging.Default()
	}
	return &Runtime{
		gatewayConfig:    gatewayConfig,
		supervisorConfig: supervisorConfig,
		registry:         registry,
		logger:           logger,
		onStatus:         onStatus,
	}
}

// Start binds and starts the gateway listener, derives the supervisor's
// GATEWAY_BASE_URL from the listener's bound address, then spawns the
// supervised child and begins health probing.
func (r *Runtime) Start(ctx context.Context, gatewayErrCallback func(error)) error {
	listener, err := gateway.NewListener(r.gatewayConfig, r.registry, r.logger)
	if err != nil {
		return fmt.Errorf("runtime: building gateway listener: %w", err)
	}
	if err := listener.Start(gatewayErrCallback); err != nil {
		return fmt.Errorf("runtime: starting gateway listener: %w", err)
	}
	r.listener = listener

	supervisorConfig := r.supervisorConfig
	supervisorConfig.GatewayBaseURL = r.gatewayBaseURL(listener)

	sup, err := supervisor.New(supervisorConfig, r.logger, r.onStatus)
	if err != nil {
		_ = listener.Stop(ctx)
		return fmt.Errorf("runtime: building supervisor: %w", err)
	}
	if err := sup.Start(ctx); err != nil {
		_ = listener.Stop(ctx)
		return fmt.Errorf("runtime: starting supervisor: %w", err)
	}
	r.supervisor = sup

	return nil
}

func (r *Runtime) gatewayBaseURL(listener *gateway.Listener) string {
	scheme := "http"
	if r.gatewayConfig.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, listener.BoundAddr())
}

// Listener returns the running gateway listener, or nil before Start.
func (r *Runtime) Listener() *gateway.Listener {
	return r.listener
}

// Supervisor returns the running supervisor, or nil before Start.
func (r *Runtime) Supervisor() *supervisor.Supervisor {
	return r.supervisor
}

// Stop tears down the supervisor first (so the child stops receiving
// traffic before the gateway that fronts it disappears), then the gateway
// listener.
func (r *Runtime) Stop(ctx context.Context) error {
	var supervisorErr, listenerErr error

	if r.supervisor != nil {
		supervisorErr = r.supervisor.Stop(ctx)
		if supervisorErr != nil {
			r.logger.Warn("Runtime", "stopping supervisor: %v", supervisorErr)
		}
	}
	if r.listener != nil {
		listenerErr = r.listener.Stop(ctx)
		if listenerErr != nil {
			r.logger.Warn("Runtime", "stopping gateway listener: %v", listenerErr)
		}
	}

	if listenerErr != nil {
		return listenerErr
	}
	return supervisorErr
}
