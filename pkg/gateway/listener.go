package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/giantswarm/workergateway/pkg/logging"
)

// Listener binds a single host:port and routes every inbound request through
// the registry and dispatcher. It is the embeddable surface: a host runtime
// constructs one Listener, registers endpoints on it, and calls Start/Stop
// around its own lifecycle.
type Listener struct {
	config     Config
	registry   *Registry
	dispatcher *Dispatcher
	logger     logging.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	started  bool
}

// NewListener builds a Listener bound to registry. The registry may
// continue to gain and lose registrations after Start; lookups are always
// against its current state.
func NewListener(config Config, registry *Registry, logger logging.Logger) (*Listener, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Listener{
		config:     config,
		registry:   registry,
		dispatcher: NewDispatcher(config.MaxRequestBodyBytes, config.HandlerDeadline, logger),
		logger:     logger,
	}, nil
}

// Start binds the configured address and begins serving in the background.
// It returns once the listener socket is open, not once the server has
// stopped; a failure after that point is reported to errCallback if set.
func (l *Listener) Start(errCallback func(error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return ErrListenerAlreadyStarted
	}

	addr := fmt.Sprintf("%s:%d", l.config.Host, l.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway: binding %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handle)

	server := &http.Server{Handler: mux}
	if l.config.TLS != nil {
		tlsConfig, err := l.config.TLS.ServerTLSConfig()
		if err != nil {
			ln.Close()
			return fmt.Errorf("gateway: building TLS config: %w", err)
		}
		server.TLSConfig = tlsConfig
	}

	l.server = server
	l.listener = ln
	l.started = true

	go func() {
		var serveErr error
		if l.config.TLS != nil {
			serveErr = server.ServeTLS(ln, "", "")
		} else {
			serveErr = server.Serve(ln)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			l.logger.Error("Listener", serveErr, "listener on %s stopped unexpectedly", addr)
			if errCallback != nil {
				errCallback(serveErr)
			}
		}
	}()

	l.logger.Info("Listener", "gateway listening on %s", l.BoundAddr())
	return nil
}

// BoundAddr returns the actual bound address, useful when Config.Port is 0.
func (l *Listener) BoundAddr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return fmt.Sprintf("%s:%d", l.config.Host, l.config.Port)
	}
	return l.listener.Addr().String()
}

// Stop drains in-flight requests for up to Config.ShutdownGrace, closes the
// listener, then discards anything still sitting in a queued registration's
// queue. It does not unregister endpoints; the registry outlives the
// listener, empty queues and all, so a new Listener can be started against
// the same registrations.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return ErrListenerNotStarted
	}
	server := l.server
	l.started = false
	l.mu.Unlock()

	shutdownCtx := ctx
	if l.config.ShutdownGrace > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, l.config.ShutdownGrace)
		defer cancel()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.logger.Warn("Listener", "graceful shutdown did not complete cleanly: %v", err)
		return err
	}

	l.drainQueues()
	l.logger.Info("Listener", "gateway stopped")
	return nil
}

// drainQueues discards any requests left sitting in queued registrations'
// queues once the listener has stopped accepting new ones.
func (l *Listener) drainQueues() {
	for _, registration := range l.registry.List() {
		if !registration.IsQueued() {
			continue
		}
		if dropped := registration.Queue().Drain(); dropped > 0 {
			l.logger.Warn("Listener", "discarded %d undelivered requests from %s on stop", dropped, registration.Pattern)
		}
	}
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	if l.config.corsEnabled() {
		if l.handleCORS(w, r) {
			return
		}
	}

	if isReservedPath(r.URL.Path) {
		l.handleReserved(w, r)
		return
	}

	registration, pathParams, err := l.registry.Lookup(r.URL.Path)
	if err != nil {
		writeResponse(w, NotFound())
		return
	}

	outcome := l.dispatcher.Dispatch(r.Context(), registration, r, pathParams)
	writeResponse(w, outcome.Response)
}

// handleCORS applies CORS headers for allowed origins and short-circuits
// OPTIONS preflight requests with a 204. It returns true if it fully
// handled the request (preflight), false if the caller should continue
// routing normally.
func (l *Listener) handleCORS(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	allowed, ok := l.config.corsAllowsOrigin(origin)
	if !ok {
		return false
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Vary", "Origin")

	if r.Method != http.MethodOptions {
		return false
	}

	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.WriteHeader(http.StatusNoContent)
	return true
}

func isReservedPath(path string) bool {
	trimmed := strings.TrimPrefix(path, "/")
	for prefix := range reservedPrefixes {
		if trimmed == prefix || strings.HasPrefix(trimmed, prefix+"/") {
			return true
		}
	}
	return false
}

func (l *Listener) handleReserved(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case trimmed == "_metrics" || strings.HasPrefix(trimmed, "_metrics/"):
		l.handleMetrics(w, r)
	case strings.HasPrefix(trimmed, "_internal/poll/"):
		l.handleLongPoll(w, r, strings.TrimPrefix(trimmed, "_internal/poll/"))
	case trimmed == "openapi.json":
		l.handleOpenAPI(w, r)
	case trimmed == "swagger" || strings.HasPrefix(trimmed, "swagger/"):
		l.handleSwaggerUI(w, r)
	default:
		writeResponse(w, NotFound())
	}
}

func (l *Listener) handleMetrics(w http.ResponseWriter, r *http.Request) {
	registrations := l.registry.List()
	snapshots := make([]Snapshot, 0, len(registrations))
	for _, reg := range registrations {
		queueSize := 0
		if reg.IsQueued() {
			queueSize = reg.Queue().Size()
		}
		snapshots = append(snapshots, reg.Metrics.snapshot(reg.Pattern.String(), queueSize))
	}

	body, err := json.Marshal(snapshots)
	if err != nil {
		writeResponse(w, InternalServerError())
		return
	}
	writeResponse(w, Response{StatusCode: http.StatusOK, Body: body, Headers: map[string]string{"Content-Type": "application/json"}})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	header := w.Header()
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	if _, ok := resp.Headers["Content-Type"]; !ok && len(resp.Body) > 0 {
		header.Set("Content-Type", "application/octet-stream")
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
