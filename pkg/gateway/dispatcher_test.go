package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistration(t *testing.T, kind registrationKind, handler Handler, capacity int) *Registration {
	t.Helper()
	p, err := CompilePattern("/api/events")
	require.NoError(t, err)
	reg := &Registration{Pattern: p, kind: kind, handler: handler, Metrics: NewMetrics()}
	if kind == kindQueued {
		reg.queue = NewQueue(capacity)
	}
	return reg
}

func httpPost(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDispatcher_EnqueueSuccess(t *testing.T) {
	reg := newTestRegistration(t, kindQueued, nil, 2)
	d := NewDispatcher(1<<20, time.Second, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost(`{"k":"v"}`), nil)
	assert.Equal(t, 202, outcome.Response.StatusCode)
	assert.Equal(t, 1, reg.Queue().Size())
	assert.Equal(t, int64(1), reg.Metrics.successful)
}

func TestDispatcher_QueueFull(t *testing.T) {
	reg := newTestRegistration(t, kindQueued, nil, 1)
	d := NewDispatcher(1<<20, time.Second, nil)

	first := d.Dispatch(context.Background(), reg, httpPost("a"), nil)
	assert.Equal(t, 202, first.Response.StatusCode)

	second := d.Dispatch(context.Background(), reg, httpPost("b"), nil)
	assert.Equal(t, 503, second.Response.StatusCode)
	assert.Equal(t, "5", second.Response.Headers["Retry-After"])
	assert.Equal(t, int64(1), reg.Metrics.queueFullRejections)
}

func TestDispatcher_SynchronousHandler(t *testing.T) {
	handler := HandlerFunc(func(req *Request) (Response, error) {
		return JSON(map[string]string{"ok": "true"}), nil
	})
	reg := newTestRegistration(t, kindSynchronous, handler, 0)
	d := NewDispatcher(1<<20, time.Second, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost("{}"), nil)
	assert.Equal(t, 200, outcome.Response.StatusCode)
	assert.Equal(t, stateCompleted, outcome.State)
}

func TestDispatcher_HandlerError(t *testing.T) {
	handler := HandlerFunc(func(req *Request) (Response, error) {
		return Response{}, errors.New("boom")
	})
	reg := newTestRegistration(t, kindSynchronous, handler, 0)
	d := NewDispatcher(1<<20, time.Second, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost("{}"), nil)
	assert.Equal(t, 500, outcome.Response.StatusCode)
	assert.Equal(t, int64(1), reg.Metrics.failed)
}

func TestDispatcher_HandlerPanicBecomes500(t *testing.T) {
	handler := HandlerFunc(func(req *Request) (Response, error) {
		panic("unexpected")
	})
	reg := newTestRegistration(t, kindSynchronous, handler, 0)
	d := NewDispatcher(1<<20, time.Second, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost("{}"), nil)
	assert.Equal(t, 500, outcome.Response.StatusCode)
}

func TestDispatcher_HandlerDeadlineExceeded(t *testing.T) {
	handler := HandlerFunc(func(req *Request) (Response, error) {
		time.Sleep(50 * time.Millisecond)
		return Accepted(), nil
	})
	reg := newTestRegistration(t, kindSynchronous, handler, 0)
	d := NewDispatcher(1<<20, 5*time.Millisecond, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost("{}"), nil)
	assert.Equal(t, 504, outcome.Response.StatusCode)
}

func TestDispatcher_PayloadTooLarge(t *testing.T) {
	reg := newTestRegistration(t, kindQueued, nil, 1)
	d := NewDispatcher(4, time.Second, nil)

	outcome := d.Dispatch(context.Background(), reg, httpPost("this body is too long"), nil)
	assert.Equal(t, 413, outcome.Response.StatusCode)
	assert.Equal(t, int64(1), reg.Metrics.failed)
}
