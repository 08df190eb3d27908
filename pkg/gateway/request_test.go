package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_PopulatesFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/users/42?active=true", strings.NewReader(`{"x":1}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Add("X-Trace", "a")
	r.Header.Add("X-Trace", "b")

	req, err := buildRequest(r, map[string]string{"id": "42"}, 1<<20)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/users/42", req.Path)
	assert.Equal(t, "42", req.PathParams["id"])
	assert.Equal(t, "true", req.Query["active"])
	assert.Equal(t, "application/json", req.ContentType)
	assert.Equal(t, "a,b", req.Headers.Get("X-Trace"))
	assert.Equal(t, `{"x":1}`, string(req.Body))
	assert.NotEmpty(t, req.ID)
}

func TestBuildRequest_UsesSuppliedRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "caller-supplied")

	req, err := buildRequest(r, nil, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "caller-supplied", req.ID)
}

func TestBuildRequest_RejectsOversizedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this is too long"))
	_, err := buildRequest(r, nil, 4)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestBuildRequest_RejectsDotDotInPath(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/a/../b", nil)
	_, err := buildRequest(r, nil, 1<<20)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestHeader_GetIsCaseInsensitive(t *testing.T) {
	h := newHeader(http.Header{"Content-Type": []string{"text/plain"}})
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, "text/plain", h.Get("Content-Type"))
}

func TestDecodeQuery_LastValueWins(t *testing.T) {
	out, err := decodeQuery("a=1&a=2&b=x")
	require.NoError(t, err)
	assert.Equal(t, "2", out["a"])
	assert.Equal(t, "x", out["b"])
}
