package control

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/nerrad567/gray-logic-detector/internal/state"
)

// Outcomes reported to the Observer.
const (
	ResultUpdated = "updated"
	ResultFailed  = "failed"
	ResultEmpty   = "empty"
	ResultBusy    = "busy"
)

// pendingUpdate is one PUT /update waiting for the main loop.
type pendingUpdate struct {
	requestID string
	body      []byte
	reply     chan reply
}

type reply struct {
	status int
	text   string
}

// handleUpdate hands the body to the loop and relays its answer.
func (e *Endpoint) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		e.logger.Warn("reading update body failed", "error", err, "request_id", requestIDFrom(r.Context()))
		e.observe(ResultFailed)
		writeText(w, http.StatusInternalServerError, textFailed)
		return
	}

	upd := &pendingUpdate{
		requestID: requestIDFrom(r.Context()),
		body:      body,
		reply:     make(chan reply, 1),
	}

	ctx, cancel := context.WithTimeout(r.Context(), e.serviceTimeout)
	defer cancel()

	select {
	case e.pending <- upd:
	case <-ctx.Done():
		e.logger.Warn("update not serviced by main loop", "request_id", upd.requestID, "error", ctx.Err())
		e.observe(ResultBusy)
		writeText(w, http.StatusServiceUnavailable, textBusy)
		return
	case <-e.closing:
		e.observe(ResultBusy)
		writeText(w, http.StatusServiceUnavailable, textBusy)
		return
	}

	// Once handed over the update is applied; always wait for the result.
	res := <-upd.reply
	writeText(w, res.status, res.text)
}

// ServeOne applies at most one pending update and reports whether it did.
// It never blocks: with nothing queued it returns false immediately.
//
// It must be called from the goroutine that owns the state store.
func (e *Endpoint) ServeOne(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case upd := <-e.pending:
		upd.reply <- e.apply(upd)
		return true
	default:
		return false
	}
}

func (e *Endpoint) apply(upd *pendingUpdate) reply {
	if len(upd.body) == 0 {
		e.observe(ResultEmpty)
		return reply{status: http.StatusOK, text: textBodyNotReceived}
	}

	err := e.applier.ApplyJSON(upd.body)
	switch {
	case err == nil:
	case errors.Is(err, state.ErrMalformedConfiguration):
		e.logger.Warn("rejected malformed configuration", "request_id", upd.requestID, "error", err)
		e.observe(ResultFailed)
		return reply{status: http.StatusInternalServerError, text: textFailed}
	case errors.Is(err, state.ErrInvalidSlot):
		// The valid entries of the batch were applied.
		e.logger.Warn("configuration referenced invalid slots", "request_id", upd.requestID, "error", err)
	default:
		e.logger.Error("applying configuration failed", "request_id", upd.requestID, "error", err)
		e.observe(ResultFailed)
		return reply{status: http.StatusInternalServerError, text: textFailed}
	}

	e.logger.Info("configuration updated", "request_id", upd.requestID)
	e.observe(ResultUpdated)
	return reply{status: http.StatusOK, text: textUpdated}
}

func (e *Endpoint) observe(result string) {
	if e.observer != nil {
		e.observer.ObserveControl(result)
	}
}
