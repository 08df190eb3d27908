package gateway

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header is a case-insensitive header map: lookups lower-case the key, and
// repeated values for the same header are joined with "," in received
// order.
type Header map[string][]string

func newHeader(h http.Header) Header {
	out := make(Header, len(h))
	for k, values := range h {
		out[strings.ToLower(k)] = values
	}
	return out
}

// Get returns the comma-joined value for name, case-insensitively, or "" if
// absent.
func (h Header) Get(name string) string {
	values := h[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}
	return strings.Join(values, ",")
}

// Keys returns the lower-cased header names present, in no particular
// order (ordering is not observable to callers).
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// Request is the immutable value handed to handlers and queue consumers.
// It is constructed exactly once, by buildRequest, and never mutated
// afterward.
type Request struct {
	ID          string
	Method      string
	Path        string
	Query       map[string]string
	PathParams  map[string]string
	Headers     Header
	ContentType string
	Body        []byte
	ClientAddr  string
	Timestamp   time.Time
}

// buildRequest converts an *http.Request into an immutable Request,
// enforcing the bounded-body-read and path/query normalisation rules. It
// is the sole constructor for Request values.
func buildRequest(r *http.Request, pathParams map[string]string, maxBodySize int64) (*Request, error) {
	path, err := normalizePath(r.URL.Path)
	if err != nil {
		return nil, err
	}

	query, err := decodeQuery(r.URL.RawQuery)
	if err != nil {
		return nil, err
	}

	if r.ContentLength > maxBodySize {
		return nil, ErrPayloadTooLarge
	}

	body, err := readBounded(r.Body, maxBodySize)
	if err != nil {
		return nil, err
	}

	params := pathParams
	if params == nil {
		params = map[string]string{}
	}

	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}

	return &Request{
		ID:          id,
		Method:      strings.ToUpper(r.Method),
		Path:        path,
		Query:       query,
		PathParams:  params,
		Headers:     newHeader(r.Header),
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
		ClientAddr:  r.RemoteAddr,
		Timestamp:   time.Now(),
	}, nil
}

// readBounded reads from r incrementally, failing with ErrPayloadTooLarge
// the instant more than maxBytes have been read, never buffering past the
// configured cap.
func readBounded(r io.Reader, maxBytes int64) ([]byte, error) {
	// Read one byte past the limit so an exactly-maxBytes body doesn't
	// look like an overflow, while a (maxBytes+1)-byte body is caught
	// without ever materialising a larger buffer.
	limited := io.LimitReader(r, maxBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return nil, ErrBadRequest
	}
	if int64(len(buf)) > maxBytes {
		return nil, ErrPayloadTooLarge
	}
	return buf, nil
}

// normalizePath percent-decodes path segments and rejects ".." or NUL.
func normalizePath(path string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", ErrBadRequest
	}
	if strings.ContainsRune(decoded, 0) {
		return "", ErrBadRequest
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	for _, seg := range strings.Split(decoded, "/") {
		if seg == ".." {
			return "", ErrBadRequest
		}
	}
	return decoded, nil
}

// decodeQuery percent-decodes a raw query string using UTF-8, last-wins on
// repeated keys.
func decodeQuery(raw string) (map[string]string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrBadRequest
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		out[k] = v[len(v)-1]
	}
	return out, nil
}
