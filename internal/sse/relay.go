package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/services"
)

// Relay streams one completion to a single response as server-sent events.
// The event-stream headers are not placed on the response until the first
// frame is written, so a caller that never emits can still send a plain JSON
// error with its own status code and content type.
type Relay struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	log       *logger.Logger
	started   bool
	finalized bool
}

func NewRelay(w http.ResponseWriter, log *logger.Logger) (*Relay, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &Relay{w: w, flusher: flusher, log: log.With("component", "SSERelay")}, nil
}

// Started reports whether any frame has been written. Once true the status
// line is on the wire and errors can only be delivered in-stream.
func (r *Relay) Started() bool {
	return r.started
}

func (r *Relay) Token(token string) {
	r.write(map[string]string{"token": token})
}

func (r *Relay) Done(payload services.DonePayload) {
	if r.finalized {
		return
	}
	r.write(payload)
	r.finalized = true
}

func (r *Relay) Fail(message string) {
	if r.finalized {
		return
	}
	r.write(map[string]string{"error": message})
	r.finalized = true
}

func (r *Relay) write(payload any) {
	if r.finalized {
		return
	}
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		r.log.Warn("Failed to marshal SSE frame", "error", err)
		return
	}
	if !r.started {
		h := r.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
	}
	if _, err := fmt.Fprintf(r.w, "data: %s\n\n", jsonBytes); err != nil {
		// The client is gone; keep accepting events so the caller's
		// pipeline runs to completion regardless.
		r.log.Debug("SSE write failed", "error", err)
	}
	r.started = true
	r.flusher.Flush()
}

var _ services.CompletionEmitter = (*Relay)(nil)
