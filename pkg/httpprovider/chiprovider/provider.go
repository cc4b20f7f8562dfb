// Package chiprovider implements httpprovider.Provider over a chi router.
package chiprovider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/internal/server"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider/exchange"
)

// Engine is the subset of *chi.Mux the provider registers through.
type Engine interface {
	Use(middlewares ...func(http.Handler) http.Handler)
	Get(pattern string, h http.HandlerFunc)
	Post(pattern string, h http.HandlerFunc)
	Put(pattern string, h http.HandlerFunc)
	Patch(pattern string, h http.HandlerFunc)
	Delete(pattern string, h http.HandlerFunc)
	Options(pattern string, h http.HandlerFunc)
	HandleFunc(pattern string, h http.HandlerFunc)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// stage is one step of a route chain; it continues by calling next.
type stage func(w http.ResponseWriter, r *http.Request, next func())

// Provider adapts a chi router to httpprovider.Provider.
type Provider struct {
	engine Engine
	server server.Server
	logger *zap.Logger

	bodyLimit   int64
	xml         bool
	uploadDir   string
	maxFileSize int64
	parser      *exchange.BodyParser

	reporter    httpprovider.ErrorReporter
	observer    httpprovider.Observer
	prelude     []func(http.Handler) http.Handler
	corsIgnored bool

	mu     sync.Mutex
	routes map[string]struct{}
}

var _ httpprovider.Provider = (*Provider)(nil)

// New wraps engine and installs the global stages in order: prelude,
// exchange bookkeeping, body parsing, error translation.
func New(engine Engine, opts ...Option) *Provider {
	p := &Provider{
		engine: engine,
		logger: zap.NewNop(),
		xml:    true,
		routes: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.server == nil {
		p.server = server.New(server.DefaultConfig(), p.logger)
	}
	if p.corsIgnored {
		p.logger.Warn("CORS settings are not supported by the chi driver and were ignored")
	}
	p.parser = exchange.NewBodyParser(p.bodyLimit, p.xml)

	stages := make([]func(http.Handler) http.Handler, 0, len(p.prelude)+3)
	stages = append(stages, p.prelude...)
	stages = append(stages, p.exchangeStage, p.bodyStage, p.errorStage)
	p.engine.Use(stages...)
	return p
}

// RegisterEndpoint registers the caller's middleware, an upload stage and
// the wrapped handler as one chi handler for opts.Type.
func (p *Provider) RegisterEndpoint(opts httpprovider.EndpointOptions) (err error) {
	if err := opts.Validate(); err != nil {
		return err
	}

	pattern, wildcard := translatePattern(opts.URI)
	key := string(opts.Type) + " " + pattern
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.routes[key]; dup {
		return fmt.Errorf("%w: %s %s already registered", httpprovider.ErrRouteConflict, opts.Type, opts.URI)
	}

	chain := opts.MiddlewareChain(0)
	stages := make([]stage, 0, len(chain)+2)
	for _, mw := range chain {
		stages = append(stages, p.makeMiddleware(mw, wildcard))
	}
	stages = append(stages, p.uploadStage(opts), p.makeHandler(opts.Handler, wildcard))
	h := run(stages)

	// chi panics on malformed patterns.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s %s: %v", httpprovider.ErrRouteConflict, opts.Type, opts.URI, rec)
		}
	}()

	switch opts.Type {
	case httpprovider.MethodGet:
		p.engine.Get(pattern, h)
	case httpprovider.MethodPost:
		p.engine.Post(pattern, h)
	case httpprovider.MethodPut:
		p.engine.Put(pattern, h)
	case httpprovider.MethodPatch:
		p.engine.Patch(pattern, h)
	case httpprovider.MethodDelete:
		p.engine.Delete(pattern, h)
	case httpprovider.MethodOptions:
		p.engine.Options(pattern, h)
	case httpprovider.MethodAll:
		p.engine.HandleFunc(pattern, h)
	default:
		return fmt.Errorf("%w: %s", httpprovider.ErrUnsupportedMethod, opts.Type)
	}
	p.routes[key] = struct{}{}

	p.logger.Debug("Registered endpoint",
		zap.String("method", opts.Type.String()),
		zap.String("uri", opts.URI),
		zap.String("pattern", pattern),
		zap.Int("middleware", len(chain)))
	return nil
}

func run(stages []stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var step func(i int)
		step = func(i int) {
			if i < len(stages) {
				stages[i](w, r, func() { step(i + 1) })
			}
		}
		step(0)
	}
}

// BootstrapProvider starts serving the router on port.
func (p *Provider) BootstrapProvider(port int, onReady httpprovider.ReadyFunc) error {
	return p.server.Start(port, p.engine, onReady)
}

// Handler returns the router with the global stages installed.
func (p *Provider) Handler() http.Handler { return p.engine }

// Addr returns the bound address once bootstrapped.
func (p *Provider) Addr() net.Addr { return p.server.Addr() }

// Shutdown gracefully stops serving.
func (p *Provider) Shutdown(ctx context.Context) error { return p.server.Shutdown(ctx) }

func (p *Provider) exchangeStage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		st, req := exchange.Begin(ww, r)

		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var route string
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := st.Elapsed()
		p.logger.Info("Request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", st.ID),
		)
		if p.observer != nil {
			p.observer.ObserveExchange(req.Method, route, status, elapsed)
		}
	})
}

func (p *Provider) bodyStage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := exchange.StateOf(r)
		if err := p.parser.Parse(r, st); err != nil {
			st.Err = err
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Provider) errorStage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := exchange.StateOf(r).Err; err != nil {
			p.exceptionHandler(w, r, err)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				p.exceptionHandler(w, r, &httpprovider.PanicError{Value: rec})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (p *Provider) makeMiddleware(mw httpprovider.Middleware, wildcard string) stage {
	return func(w http.ResponseWriter, r *http.Request, next func()) {
		called := false
		proceed := func() {
			if called {
				return
			}
			called = true
			next()
		}
		if err := mw(p.makeRequest(r, wildcard), exchange.NewResponse(w, r), proceed); err != nil {
			p.exceptionHandler(w, r, err)
		}
	}
}

func (p *Provider) uploadStage(opts httpprovider.EndpointOptions) stage {
	dest := opts.FileDestination
	if dest == "" {
		dest = p.uploadDir
	}
	uploader := &exchange.Uploader{
		Destination: dest,
		Fields:      append([]httpprovider.FileOption(nil), opts.Files...),
		MaxFileSize: p.maxFileSize,
	}
	return func(w http.ResponseWriter, r *http.Request, next func()) {
		if err := uploader.Handle(r, exchange.StateOf(r)); err != nil {
			p.exceptionHandler(w, r, err)
			return
		}
		next()
	}
}

func (p *Provider) makeHandler(h httpprovider.Handler, wildcard string) stage {
	return func(w http.ResponseWriter, r *http.Request, _ func()) {
		if err := h(p.makeRequest(r, wildcard), exchange.NewResponse(w, r)); err != nil {
			p.exceptionHandler(w, r, err)
		}
	}
}

func (p *Provider) makeRequest(r *http.Request, wildcard string) httpprovider.Request {
	params := make(httpprovider.Params)
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if i < len(rctx.URLParams.Values) {
				params[key] = rctx.URLParams.Values[i]
			}
		}
	}
	if wildcard != "" {
		params[wildcard] = params["*"]
	}
	return exchange.NewRequest(r, params)
}

func (p *Provider) exceptionHandler(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("name", httpprovider.ErrorName(err)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", exchange.StateOf(r).ID),
	}

	if werr := exchange.WriteError(w, r, err); werr != nil {
		if errors.Is(werr, exchange.ErrResponseWritten) {
			p.logger.Warn("Request failed after response was sent", fields...)
		} else {
			p.logger.Error("Failed to write error response", append(fields, zap.NamedError("write_error", werr))...)
		}
	} else {
		p.logger.Error("Request failed", fields...)
	}

	if p.reporter != nil {
		p.reporter.Report(r.Context(), err)
	}
}
