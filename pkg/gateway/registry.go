package gateway

import (
	"sync"

	"github.com/giantswarm/workergateway/pkg/logging"
)

// reservedPrefixes are the path prefixes the gateway itself owns; no user
// registration may use a pattern whose first segment collides with one of
// these.
var reservedPrefixes = map[string]bool{
	"_internal":    true,
	"_metrics":     true,
	"openapi.json": true,
	"swagger":      true,
}

// Handler is the single-operation capability a synchronous registration
// invokes inline ("handlers as capabilities, not
// subclasses"). Implementations must be safe for concurrent invocation.
type Handler interface {
	HandleRequest(req *Request) (Response, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(req *Request) (Response, error)

func (f HandlerFunc) HandleRequest(req *Request) (Response, error) { return f(req) }

// registrationKind tags whether a Registration is Synchronous or Queued,
// per a tagged-union design.
type registrationKind int

const (
	kindSynchronous registrationKind = iota
	kindQueued
)

// Registration is an EndpointRegistration: a compiled pattern bound to
// either a handler or a bounded queue, plus a response template and a
// metrics record.
type Registration struct {
	Pattern  Pattern
	kind     registrationKind
	handler  Handler
	queue    *Queue
	Template Template
	Metrics  *Metrics
}

// IsQueued reports whether this registration delivers via a queue rather
// than a synchronous handler.
func (r *Registration) IsQueued() bool { return r.kind == kindQueued }

// Queue returns the registration's bounded queue. It is nil for
// synchronous registrations.
func (r *Registration) Queue() *Queue { return r.queue }

// Handler returns the registration's synchronous handler. It is nil for
// queued registrations.
func (r *Registration) Handler() Handler { return r.handler }

// Registry owns the live set of Registrations and mediates every mutation.
// A single RWMutex protects it: register/unregister take the write lock,
// lookup/list take the read lock (read-biased, since lookups vastly
// outnumber registration changes once a gateway is running).
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]*Registration // normalizedKey -> registration, for conflict detection
	byPath []*Registration          // specificity-ordered, rebuilt on every mutation
	logger logging.Logger
}

// NewRegistry creates an empty registry. A nil logger falls back to
// logging.Default().
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{byKey: make(map[string]*Registration), logger: logger}
}

// RegisterHandler registers pattern as a synchronous endpoint backed by
// handler. It rejects conflicting or reserved patterns.
func (reg *Registry) RegisterHandler(patternSource string, handler Handler, template Template) (*Registration, error) {
	if handler == nil {
		return nil, &PatternError{Pattern: patternSource, Reason: "handler must not be nil"}
	}
	return reg.register(patternSource, kindSynchronous, handler, 0, template)
}

// RegisterQueue registers pattern as a queued endpoint with the given
// bounded capacity (>= 1).
func (reg *Registry) RegisterQueue(patternSource string, queueCapacity int, template Template) (*Registration, error) {
	if queueCapacity < 1 {
		return nil, &PatternError{Pattern: patternSource, Reason: "queue capacity must be >= 1"}
	}
	return reg.register(patternSource, kindQueued, nil, queueCapacity, template)
}

func (reg *Registry) register(patternSource string, kind registrationKind, handler Handler, queueCapacity int, template Template) (*Registration, error) {
	p, err := CompilePattern(patternSource)
	if err != nil {
		return nil, err
	}
	if len(p.segments) > 0 && reservedPrefixes[p.segments[0].value] {
		return nil, &PatternError{Pattern: patternSource, Reason: "reserved prefix"}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := p.normalizedKey()
	if _, exists := reg.byKey[key]; exists {
		return nil, ErrEndpointAlreadyRegistered
	}

	registration := &Registration{
		Pattern:  p,
		kind:     kind,
		handler:  handler,
		Template: template,
		Metrics:  NewMetrics(),
	}
	if kind == kindQueued {
		registration.queue = NewQueue(queueCapacity)
	}

	reg.byKey[key] = registration
	reg.rebuildIndex()
	reg.logger.Info("Registry", "registered endpoint %s", patternSource)
	return registration, nil
}

// Unregister removes the registration for pattern, if any. It is
// idempotent: unregistering an unknown pattern is not an error. Any
// requests still sitting in the endpoint's queue are discarded and logged.
func (reg *Registry) Unregister(patternSource string) error {
	p, err := CompilePattern(patternSource)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	key := p.normalizedKey()
	registration, exists := reg.byKey[key]
	if !exists {
		return nil
	}

	delete(reg.byKey, key)
	reg.rebuildIndex()

	if registration.queue != nil {
		if dropped := registration.queue.Drain(); dropped > 0 {
			reg.logger.Warn("Registry", "discarded %d undelivered requests from %s on unregister", dropped, patternSource)
		}
	}
	return nil
}

// Lookup returns the most-specific registration matching path, and the
// bound path parameters, or ErrNoMatch.
func (reg *Registry) Lookup(path string) (*Registration, map[string]string, error) {
	segments := SplitPath(path)

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, registration := range reg.byPath {
		if params, ok := registration.Pattern.Match(segments); ok {
			return registration, params, nil
		}
	}
	return nil, nil, ErrNoMatch
}

// List returns a snapshot of the active registrations, most specific first,
// for diagnostics and the metrics surface.
func (reg *Registry) List() []*Registration {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]*Registration, len(reg.byPath))
	copy(out, reg.byPath)
	return out
}

// rebuildIndex recomputes the specificity-ordered slice used by Lookup.
// Must be called with reg.mu held for writing.
func (reg *Registry) rebuildIndex() {
	byPath := make([]*Registration, 0, len(reg.byKey))
	for _, registration := range reg.byKey {
		byPath = append(byPath, registration)
	}
	sortRegistrationsBySpecificity(byPath)
	reg.byPath = byPath
}

func sortRegistrationsBySpecificity(regs []*Registration) {
	patterns := make([]Pattern, len(regs))
	for i, r := range regs {
		patterns[i] = r.Pattern
	}
	// Insertion sort keyed by SpecificityLess keeps Registration pointers
	// aligned with their Pattern during the sort.
	for i := 1; i < len(regs); i++ {
		j := i
		for j > 0 && SpecificityLess(patterns[j], patterns[j-1]) {
			patterns[j], patterns[j-1] = patterns[j-1], patterns[j]
			regs[j], regs[j-1] = regs[j-1], regs[j]
			j--
		}
	}
}
