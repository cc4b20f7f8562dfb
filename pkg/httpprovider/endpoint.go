package httpprovider

import (
	"fmt"
	"strings"
)

// Handler serves an exchange. A returned error is translated by the
// provider into the 500 error body.
type Handler func(req Request, res Response) error

// Next continues the middleware chain.
type Next func()

// Middleware runs before the endpoint handler. It continues the chain by
// calling next; returning an error aborts the chain and is translated like
// a handler error. A middleware that neither calls next nor fails must have
// written the response itself.
type Middleware func(req Request, res Response, next Next) error

// FileOption declares an upload field. MaxCount zero accepts a single file,
// a positive MaxCount accepts up to that many files under Name.
type FileOption struct {
	Name     string
	MaxCount int
}

// SingleFile accepts one file under field name.
func SingleFile(name string) FileOption {
	return FileOption{Name: name}
}

// FileArray accepts up to maxCount files under field name.
func FileArray(name string, maxCount int) FileOption {
	return FileOption{Name: name, MaxCount: maxCount}
}

// Single reports whether the option accepts exactly one file.
func (f FileOption) Single() bool {
	return f.MaxCount == 0
}

// Limit returns the maximum number of files accepted for the field.
func (f FileOption) Limit() int {
	if f.MaxCount <= 0 {
		return 1
	}
	return f.MaxCount
}

// EndpointOptions describes a route: its method, URI, middleware chain and
// handler. Providers never modify the options they are given.
type EndpointOptions struct {
	Type       Method
	URI        string
	Middleware []Middleware
	Handler    Handler

	// Files declares accepted upload fields. When empty, multipart requests
	// may carry text fields only.
	Files []FileOption
	// FileDestination is the directory uploaded files are written to.
	// Providers fall back to their configured upload directory.
	FileDestination string
}

// Validate checks the options before they reach the framework.
func (o EndpointOptions) Validate() error {
	if !o.Type.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, o.Type)
	}
	if !strings.HasPrefix(o.URI, "/") {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidURI, o.URI)
	}
	if o.Handler == nil {
		return fmt.Errorf("%w: %s %s", ErrNilHandler, o.Type, o.URI)
	}
	seen := make(map[string]bool, len(o.Files))
	for _, f := range o.Files {
		if f.Name == "" || f.MaxCount < 0 {
			return fmt.Errorf("%w: %+v", ErrInvalidFileOption, f)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %s", ErrInvalidFileOption, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// MiddlewareChain returns a copy of the caller's middleware, leaving room
// for extra stages appended by the provider.
func (o EndpointOptions) MiddlewareChain(extra int) []Middleware {
	chain := make([]Middleware, len(o.Middleware), len(o.Middleware)+extra)
	copy(chain, o.Middleware)
	return chain
}
