package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLongPollTimeout = 30 * time.Second
	maxLongPollTimeout     = 120 * time.Second
)

// handleLongPoll implements GET /_internal/poll/<pattern>, the consumer side
// of a queued endpoint: it blocks until an item is available or the
// requested (capped) timeout elapses, then returns it as a single JSON
// envelope.
func (l *Listener) handleLongPoll(w http.ResponseWriter, r *http.Request, patternSource string) {
	if r.Method != http.MethodGet {
		writeResponse(w, BadRequest())
		return
	}

	registration, _, err := l.registry.Lookup("/" + strings.TrimPrefix(patternSource, "/"))
	if err != nil || !registration.IsQueued() {
		writeResponse(w, NotFound())
		return
	}

	timeout := parseLongPollTimeout(r.URL.Query().Get("timeout"))

	envelope, ok := registration.Queue().Poll(r.Context(), timeout)
	if !ok {
		writeResponse(w, NoContent())
		return
	}

	body, err := json.Marshal(longPollPayload{
		RequestID: envelope.Request.ID,
		Method:    envelope.Request.Method,
		Path:      envelope.Request.Path,
		Query:     envelope.Request.Query,
		Headers:   map[string][]string(envelope.Request.Headers),
		Body:      envelope.Request.Body,
		Arrived:   envelope.Arrived,
	})
	if err != nil {
		writeResponse(w, InternalServerError())
		return
	}

	writeResponse(w, Response{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

type longPollPayload struct {
	RequestID string              `json:"requestId"`
	Method    string              `json:"method"`
	Path      string              `json:"path"`
	Query     map[string]string   `json:"query,omitempty"`
	Headers   map[string][]string `json:"headers,omitempty"`
	Body      []byte              `json:"body,omitempty"`
	Arrived   time.Time           `json:"arrivedAt"`
}

func parseLongPollTimeout(raw string) time.Duration {
	if raw == "" {
		return defaultLongPollTimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultLongPollTimeout
	}
	d := time.Duration(seconds) * time.Second
	if d > maxLongPollTimeout {
		return maxLongPollTimeout
	}
	return d
}
