package gateway

import "encoding/json"

// Response is the immutable value a handler or template returns.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Template is the response emitted immediately for a queued endpoint once a
// request has been accepted onto its queue. A zero value
// Template yields the default 202 Accepted response.
type Template struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Response renders the template into a concrete Response, defaulting to 202
// Accepted with no body when the template is empty.
func (t Template) Response() Response {
	status := t.StatusCode
	if status == 0 {
		status = 202
	}
	return Response{StatusCode: status, Body: t.Body, Headers: t.Headers}
}

// JSON builds a 200 response with a JSON-encoded body and a
// Content-Type: application/json header.
func JSON(v interface{}) Response {
	body, err := json.Marshal(v)
	if err != nil {
		return InternalServerError()
	}
	return Response{
		StatusCode: 200,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// Created builds a 201 response carrying a Location header.
func Created(location string) Response {
	return Response{StatusCode: 201, Headers: map[string]string{"Location": location}}
}

// Accepted builds the default 202 Accepted response.
func Accepted() Response {
	return Response{StatusCode: 202}
}

// NoContent builds a 204 response, used when a long-poll finds nothing
// queued.
func NoContent() Response {
	return Response{StatusCode: 204}
}

// BadRequest builds a 400 response.
func BadRequest() Response {
	return Response{StatusCode: 400}
}

// NotFound builds a 404 response.
func NotFound() Response {
	return Response{StatusCode: 404}
}

// PayloadTooLarge builds a 413 response.
func PayloadTooLarge() Response {
	return Response{StatusCode: 413}
}

// InternalServerError builds a 500 response.
func InternalServerError() Response {
	return Response{StatusCode: 500}
}

// ServiceUnavailable builds the 503 "queue full" response with the
// Retry-After: 5 header by convention.
func ServiceUnavailable() Response {
	return Response{StatusCode: 503, Headers: map[string]string{"Retry-After": "5"}}
}

// GatewayTimeout builds a 504 response, used when a synchronous handler
// exceeds its deadline.
func GatewayTimeout() Response {
	return Response{StatusCode: 504}
}
