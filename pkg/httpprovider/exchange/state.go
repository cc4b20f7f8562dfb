// Package exchange holds the request/response normalization shared by the
// provider adapters: per-exchange state, body parsing, uploads, content
// negotiation and the Request/Response views handed to handlers.
package exchange

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// RequestIDHeader carries the exchange identifier in both directions.
const RequestIDHeader = "X-Request-ID"

type stateKey struct{}

// State is the adapter-owned data of a single exchange. It travels in the
// request context from the first global stage to the handler and is never
// shared between exchanges.
type State struct {
	ID      string
	Started time.Time

	Body    any
	Raw     []byte
	RawType string
	Files   map[string][]*httpprovider.UploadedFile
	Locals  map[string]any

	// Err is a failure recorded by a global stage, translated by the error
	// stage before any route middleware runs.
	Err error

	status      int
	wrote       bool
	responseErr error
	bodyParsed  bool
	multipart   bool
}

func newState(id string) *State {
	return &State{
		ID:      id,
		Started: time.Now(),
		Body:    map[string]any{},
		Files:   make(map[string][]*httpprovider.UploadedFile),
		Locals:  make(map[string]any),
	}
}

// Begin attaches a fresh State to r, assigning a request ID when the client
// did not send one. Calling Begin again on the returned request is a no-op.
func Begin(w http.ResponseWriter, r *http.Request) (*State, *http.Request) {
	if st := FromContext(r.Context()); st != nil {
		return st, r
	}

	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	st := newState(id)
	return st, r.WithContext(context.WithValue(r.Context(), stateKey{}, st))
}

// FromContext returns the State attached by Begin, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(stateKey{}).(*State)
	return st
}

// StateOf returns the State of r, or an empty detached one when r did not
// pass through Begin.
func StateOf(r *http.Request) *State {
	if st := FromContext(r.Context()); st != nil {
		return st
	}
	return newState("")
}

// Elapsed returns the time since the exchange began.
func (s *State) Elapsed() time.Duration {
	return time.Since(s.Started)
}
