package control

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Response bodies.
const (
	textUpdated         = "UPDATED"
	textFailed          = "FAILED"
	textBodyNotReceived = "Body not received"
	textUnidentified    = "Unidentified endpoint"
	textBusy            = "Busy"
)

// Handler returns the endpoint's router. Start serves it; tests can wrap it
// in httptest.
func (e *Endpoint) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(e.requestIDMiddleware)
	r.Use(e.loggingMiddleware)
	r.Use(e.recoveryMiddleware)
	r.Use(e.bodySizeLimitMiddleware)

	r.Put("/update", e.handleUpdate)

	// Unknown paths and wrong methods are indistinguishable to clients.
	r.NotFound(e.handleUnidentified)
	r.MethodNotAllowed(e.handleUnidentified)

	return r
}

func (e *Endpoint) handleUnidentified(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusNotFound, textUnidentified)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body)) //nolint:errcheck // client may have gone away
}
