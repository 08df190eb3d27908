package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_OfferUpToCapacityThenRejects(t *testing.T) {
	q := NewQueue(2)
	assert.True(t, q.Offer(&Envelope{Request: &Request{ID: "1"}}))
	assert.True(t, q.Offer(&Envelope{Request: &Request{ID: "2"}}))
	assert.False(t, q.Offer(&Envelope{Request: &Request{ID: "3"}}))
	assert.Equal(t, 2, q.Size())
}

func TestQueue_PollReturnsFIFOOrder(t *testing.T) {
	q := NewQueue(4)
	q.Offer(&Envelope{Request: &Request{ID: "first"}})
	q.Offer(&Envelope{Request: &Request{ID: "second"}})

	env, ok := q.Poll(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, "first", env.Request.ID)

	env, ok = q.Poll(context.Background(), time.Second)
	require.True(t, ok)
	assert.Equal(t, "second", env.Request.ID)
}

func TestQueue_PollTimesOut(t *testing.T) {
	q := NewQueue(1)
	_, ok := q.Poll(context.Background(), 10*time.Millisecond)
	assert.False(t, ok)
}

func TestQueue_PollRespectsContextCancellation(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := q.Poll(ctx, time.Second)
	assert.False(t, ok)
}

func TestQueue_DrainCountsAndEmpties(t *testing.T) {
	q := NewQueue(3)
	q.Offer(&Envelope{Request: &Request{ID: "1"}})
	q.Offer(&Envelope{Request: &Request{ID: "2"}})

	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, 0, q.Size())
}
