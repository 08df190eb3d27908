package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giantswarm/workergateway/pkg/gateway"
)

// proxyHandler forwards a gateway request to the supervised worker process
// over plain HTTP, used by the demo server to show the two cores composed
// end to end: the gateway accepts external traffic, the supervisor keeps
// the worker answering it alive.
type proxyHandler struct {
	client  *http.Client
	baseURL string
}

func newProxyHandler(baseURL string) *proxyHandler {
	return &proxyHandler{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (p *proxyHandler) HandleRequest(req *gateway.Request) (gateway.Response, error) {
	targetURL := p.baseURL + req.Path

	httpReq, err := http.NewRequest(req.Method, targetURL, bytes.NewReader(req.Body))
	if err != nil {
		return gateway.Response{}, fmt.Errorf("proxy: building request: %w", err)
	}
	httpReq.Header.Set("X-Request-ID", req.ID)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return gateway.Response{
			StatusCode: http.StatusBadGateway,
			Body:       []byte(fmt.Sprintf("worker unreachable: %v", err)),
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.Response{}, fmt.Errorf("proxy: reading worker response: %w", err)
	}

	headers := map[string]string{}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		headers["Content-Type"] = ct
	}
	return gateway.Response{StatusCode: resp.StatusCode, Body: body, Headers: headers}, nil
}
