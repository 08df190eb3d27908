package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/giantswarm/workergateway/pkg/logging"
)

// dispatchState names the stages a request passes through on its way to a
// response. It exists for documentation and tests; the dispatcher does not
// store it as a field because each request is a single straight-line call,
// not a long-lived object.
type dispatchState int

const (
	stateReceived dispatchState = iota
	statePARSED
	stateMatched
	stateReady
	stateCompleted
	stateEnqueued
	stateRejected
)

// Dispatcher executes the RECEIVED -> PARSED -> MATCHED -> READY ->
// {COMPLETED, ENQUEUED, REJECTED} pipeline for a single inbound request
// already bound to a *Registration by the registry lookup.
type Dispatcher struct {
	maxRequestSize  int64
	handlerDeadline time.Duration
	longPollDefault time.Duration
	logger          logging.Logger
}

// NewDispatcher builds a Dispatcher for the given body-size cap and handler
// deadline.
func NewDispatcher(maxRequestSize int64, handlerDeadline time.Duration, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{maxRequestSize: maxRequestSize, handlerDeadline: handlerDeadline, logger: logger}
}

// Outcome is what the dispatcher decided for one request: the response to
// write and the terminal state reached. The listener writes only the
// Response; tests use State to assert on the state machine directly.
type Outcome struct {
	Response Response
	State    dispatchState
}

// Dispatch runs the pipeline for one HTTP-layer request against
// registration, recording metrics at every transition point.
func (d *Dispatcher) Dispatch(ctx context.Context, registration *Registration, httpReq *http.Request, pathParams map[string]string) Outcome {
	receiveTime := time.Now()
	registration.Metrics.recordReceived()

	req, err := buildRequest(httpReq, pathParams, d.maxRequestSize)
	if err != nil {
		return d.fail(registration, err)
	}

	// MATCHED -> READY: the request pipeline above already performed the
	// body read; reaching here means we are in READY.
	if registration.IsQueued() {
		return d.enqueue(registration, req, receiveTime)
	}
	return d.invokeHandler(ctx, registration, req, receiveTime)
}

func (d *Dispatcher) fail(registration *Registration, err error) Outcome {
	switch err {
	case ErrPayloadTooLarge:
		registration.Metrics.recordFailure()
		return Outcome{Response: PayloadTooLarge(), State: stateRejected}
	case ErrBadRequest:
		registration.Metrics.recordFailure()
		return Outcome{Response: BadRequest(), State: stateRejected}
	default:
		registration.Metrics.recordFailure()
		return Outcome{Response: InternalServerError(), State: stateRejected}
	}
}

func (d *Dispatcher) enqueue(registration *Registration, req *Request, receiveTime time.Time) Outcome {
	envelope := &Envelope{Request: req, Arrived: receiveTime}
	if !registration.queue.Offer(envelope) {
		registration.Metrics.recordQueueFullRejection()
		d.logger.Warn("Dispatcher", "rejecting request %s for %s: %v", req.ID, registration.Pattern, ErrQueueFull)
		return Outcome{Response: ServiceUnavailable(), State: stateRejected}
	}

	registration.Metrics.recordSuccess(time.Since(receiveTime))
	return Outcome{Response: registration.Template.Response(), State: stateEnqueued}
}

func (d *Dispatcher) invokeHandler(ctx context.Context, registration *Registration, req *Request, receiveTime time.Time) Outcome {
	deadline := d.handlerDeadline
	if deadline <= 0 {
		deadline = 5 * time.Second
	}

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("handler panicked: %v", r)}
			}
		}()
		resp, err := registration.Handler().HandleRequest(req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			procErr := &RequestProcessingError{Endpoint: registration.Pattern.String(), Err: res.err}
			registration.Metrics.recordFailure()
			d.logger.Error("Dispatcher", procErr, "handler for %s failed on request %s", registration.Pattern, req.ID)
			return Outcome{Response: InternalServerError(), State: stateRejected}
		}
		registration.Metrics.recordSuccess(time.Since(receiveTime))
		return Outcome{Response: res.resp, State: stateCompleted}
	case <-time.After(deadline):
		registration.Metrics.recordFailure()
		d.logger.Error("Dispatcher", ErrHandlerDeadlineExceeded, "handler for %s exceeded %s deadline on request %s", registration.Pattern, deadline, req.ID)
		return Outcome{Response: GatewayTimeout(), State: stateRejected}
	case <-ctx.Done():
		registration.Metrics.recordFailure()
		return Outcome{Response: InternalServerError(), State: stateRejected}
	}
}
