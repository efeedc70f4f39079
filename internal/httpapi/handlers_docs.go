package httpapi

import "net/http"

const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "Skreaver HTTP Runtime", "version": "1"},
  "paths": {
    "/health": {"get": {"summary": "Liveness probe"}},
    "/ready": {"get": {"summary": "Readiness probe"}},
    "/metrics": {"get": {"summary": "Prometheus exposition"}},
    "/auth/token": {"post": {"summary": "Exchange credentials for a JWT pair"}},
    "/agents": {
      "get": {"summary": "List agents"},
      "post": {"summary": "Create an agent"}
    },
    "/agents/{id}/status": {"get": {"summary": "Agent status"}},
    "/agents/{id}/observe": {"post": {"summary": "Submit an observation"}},
    "/agents/{id}/stream": {"get": {"summary": "Streaming agent updates (SSE)"}},
    "/queue/metrics": {"get": {"summary": "Backpressure and queue depths"}}
  }
}`

const docsHTML = `<!DOCTYPE html>
<html>
<head><title>Skreaver HTTP Runtime</title></head>
<body>
<h1>Skreaver HTTP Runtime</h1>
<p>See <a href="/openapi.json">/openapi.json</a> for the machine-readable surface.</p>
</body>
</html>`

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(openAPIDocument))
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}
