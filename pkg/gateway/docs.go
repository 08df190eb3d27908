package gateway

import (
	"bytes"
	"embed"
	"encoding/json"
	"net/http"
)

//go:embed templates/swagger-ui.html
var docsTemplates embed.FS

// maxDocsBodyBytes bounds how much of a documentation response readBounded
// will materialise; both the generated OpenAPI document and the embedded
// swagger-ui page are well under it.
const maxDocsBodyBytes = 1 << 20

// handleOpenAPI serves a minimal OpenAPI 3.0 document generated from the
// current registry state: one path entry per registered pattern, synthesized
// rather than hand-authored, so it always reflects what is actually
// reachable.
func (l *Listener) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := l.buildOpenAPIDocument()
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		writeResponse(w, InternalServerError())
		return
	}

	body, err := readBounded(bytes.NewReader(raw), maxDocsBodyBytes)
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

type openAPIDocument struct {
	OpenAPI string                          `json:"openapi"`
	Info    openAPIInfo                     `json:"info"`
	Paths   map[string]map[string]openAPIOp `json:"paths"`
}

type openAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type openAPIOp struct {
	Summary   string              `json:"summary"`
	Responses map[string]openAPIR `json:"responses"`
}

type openAPIR struct {
	Description string `json:"description"`
}

func (l *Listener) buildOpenAPIDocument() openAPIDocument {
	paths := make(map[string]map[string]openAPIOp)
	for _, reg := range l.registry.List() {
		method := "post"
		summary := "Synchronous handler endpoint"
		if reg.IsQueued() {
			summary = "Queued endpoint; requests are delivered to consumers via long-poll"
		}
		paths[reg.Pattern.String()] = map[string]openAPIOp{
			method: {
				Summary: summary,
				Responses: map[string]openAPIR{
					"default": {Description: "See /_metrics for this endpoint's observed status codes."},
				},
			},
		}
	}
	return openAPIDocument{
		OpenAPI: "3.0.3",
		Info:    openAPIInfo{Title: "gateway", Version: "1.0.0"},
		Paths:   paths,
	}
}

// handleSwaggerUI serves the embedded swagger-ui page through the same
// bounded reader the request pipeline uses, GET-only.
func (l *Listener) handleSwaggerUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeResponse(w, BadRequest())
		return
	}

	f, err := docsTemplates.Open("templates/swagger-ui.html")
	if err != nil {
		writeResponse(w, InternalServerError())
		return
	}
	defer f.Close()

	body, err := readBounded(f, maxDocsBodyBytes)
	if err != nil {
		writeResponse(w, InternalServerError())
		return
	}

	writeResponse(w, Response{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
	})
}
