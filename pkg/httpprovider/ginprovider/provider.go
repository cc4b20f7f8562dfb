// Package ginprovider implements httpprovider.Provider over a gin engine.
package ginprovider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/internal/server"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider/exchange"
)

// Engine is the subset of *gin.Engine the provider registers through.
type Engine interface {
	router
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
	ServeHTTP(w http.ResponseWriter, req *http.Request)
}

type router interface {
	GET(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	POST(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	PUT(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	PATCH(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	DELETE(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	OPTIONS(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
	Any(relativePath string, handlers ...gin.HandlerFunc) gin.IRoutes
}

// Provider adapts a gin engine to httpprovider.Provider.
type Provider struct {
	engine Engine
	server server.Server
	logger *zap.Logger

	bodyLimit   int64
	xml         bool
	uploadDir   string
	maxFileSize int64
	parser      *exchange.BodyParser

	reporter httpprovider.ErrorReporter
	observer httpprovider.Observer
	prelude  []gin.HandlerFunc

	// shadow mirrors every registered route so conflicts surface before
	// the real engine is touched. gin's Any installs methods one at a time
	// and would otherwise leave a half-registered route behind.
	mu     sync.Mutex
	shadow *gin.Engine
	routes []httpprovider.EndpointOptions
}

var _ httpprovider.Provider = (*Provider)(nil)

// New wraps engine and installs the global stages in order: prelude,
// exchange bookkeeping, body parsing, error translation.
func New(engine Engine, opts ...Option) *Provider {
	p := &Provider{
		engine: engine,
		logger: zap.NewNop(),
		xml:    true,
		shadow: gin.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.server == nil {
		p.server = server.New(server.DefaultConfig(), p.logger)
	}
	p.parser = exchange.NewBodyParser(p.bodyLimit, p.xml)

	stages := make([]gin.HandlerFunc, 0, len(p.prelude)+3)
	stages = append(stages, p.prelude...)
	stages = append(stages, p.exchangeStage, p.bodyStage, p.errorStage)
	p.engine.Use(stages...)
	return p
}

// RegisterEndpoint forwards the route to the engine's registration function
// for opts.Type with the caller's middleware, an upload stage and the
// wrapped handler.
func (p *Provider) RegisterEndpoint(opts httpprovider.EndpointOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	chain := opts.MiddlewareChain(0)
	handlers := make([]gin.HandlerFunc, 0, len(chain)+2)
	for _, mw := range chain {
		handlers = append(handlers, p.makeMiddleware(mw))
	}
	handlers = append(handlers, p.uploadStage(opts), p.makeHandler(opts.Handler))

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := dispatch(p.shadow, opts, noop); err != nil {
		p.rebuildShadow()
		return err
	}
	if err := dispatch(p.engine, opts, handlers...); err != nil {
		return err
	}
	p.routes = append(p.routes, httpprovider.EndpointOptions{Type: opts.Type, URI: opts.URI})

	p.logger.Debug("Registered endpoint",
		zap.String("method", opts.Type.String()),
		zap.String("uri", opts.URI),
		zap.Int("middleware", len(chain)))
	return nil
}

func noop(*gin.Context) {}

// rebuildShadow drops whatever a failed registration left in the shadow.
func (p *Provider) rebuildShadow() {
	p.shadow = gin.New()
	for _, r := range p.routes {
		_ = dispatch(p.shadow, r, noop)
	}
}

// dispatch calls the registration function of engine matching opts.Type.
// gin panics on conflicting or malformed routes.
func dispatch(engine router, opts httpprovider.EndpointOptions, handlers ...gin.HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s %s: %v", httpprovider.ErrRouteConflict, opts.Type, opts.URI, rec)
		}
	}()

	switch opts.Type {
	case httpprovider.MethodGet:
		engine.GET(opts.URI, handlers...)
	case httpprovider.MethodPost:
		engine.POST(opts.URI, handlers...)
	case httpprovider.MethodPut:
		engine.PUT(opts.URI, handlers...)
	case httpprovider.MethodPatch:
		engine.PATCH(opts.URI, handlers...)
	case httpprovider.MethodDelete:
		engine.DELETE(opts.URI, handlers...)
	case httpprovider.MethodOptions:
		engine.OPTIONS(opts.URI, handlers...)
	case httpprovider.MethodAll:
		engine.Any(opts.URI, handlers...)
	default:
		return fmt.Errorf("%w: %s", httpprovider.ErrUnsupportedMethod, opts.Type)
	}
	return nil
}

// BootstrapProvider starts serving the engine on port.
func (p *Provider) BootstrapProvider(port int, onReady httpprovider.ReadyFunc) error {
	return p.server.Start(port, p.engine, onReady)
}

// Handler returns the engine with the global stages installed.
func (p *Provider) Handler() http.Handler { return p.engine }

// Addr returns the bound address once bootstrapped.
func (p *Provider) Addr() net.Addr { return p.server.Addr() }

// Shutdown gracefully stops serving.
func (p *Provider) Shutdown(ctx context.Context) error { return p.server.Shutdown(ctx) }

func (p *Provider) exchangeStage(c *gin.Context) {
	st, req := exchange.Begin(c.Writer, c.Request)
	c.Request = req

	c.Next()

	route := c.FullPath()
	status := c.Writer.Status()
	elapsed := st.Elapsed()
	p.logger.Info("Request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
		zap.String("request_id", st.ID),
	)
	if p.observer != nil {
		p.observer.ObserveExchange(c.Request.Method, route, status, elapsed)
	}
}

func (p *Provider) bodyStage(c *gin.Context) {
	st := exchange.StateOf(c.Request)
	if err := p.parser.Parse(c.Request, st); err != nil {
		st.Err = err
	}
}

func (p *Provider) errorStage(c *gin.Context) {
	if err := exchange.StateOf(c.Request).Err; err != nil {
		p.exceptionHandler(c, err)
		c.Abort()
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			p.exceptionHandler(c, &httpprovider.PanicError{Value: rec})
			c.Abort()
		}
	}()

	c.Next()
}

func (p *Provider) makeMiddleware(mw httpprovider.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := func() {
			if called {
				return
			}
			called = true
			c.Next()
		}
		if err := mw(p.makeRequest(c), p.makeResponse(c), next); err != nil {
			p.exceptionHandler(c, err)
			c.Abort()
			return
		}
		if !called {
			c.Abort()
		}
	}
}

func (p *Provider) uploadStage(opts httpprovider.EndpointOptions) gin.HandlerFunc {
	dest := opts.FileDestination
	if dest == "" {
		dest = p.uploadDir
	}
	uploader := &exchange.Uploader{
		Destination: dest,
		Fields:      append([]httpprovider.FileOption(nil), opts.Files...),
		MaxFileSize: p.maxFileSize,
	}
	return func(c *gin.Context) {
		if err := uploader.Handle(c.Request, exchange.StateOf(c.Request)); err != nil {
			p.exceptionHandler(c, err)
			c.Abort()
		}
	}
}

func (p *Provider) makeHandler(h httpprovider.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(p.makeRequest(c), p.makeResponse(c)); err != nil {
			p.exceptionHandler(c, err)
		}
	}
}

func (p *Provider) makeRequest(c *gin.Context) httpprovider.Request {
	params := make(httpprovider.Params, len(c.Params))
	wildcard := catchAll(c.FullPath())
	for _, param := range c.Params {
		if param.Key == wildcard {
			// gin keeps the leading slash of a catch-all match; chi does not.
			params[param.Key] = strings.TrimPrefix(param.Value, "/")
			continue
		}
		params[param.Key] = param.Value
	}
	return exchange.NewRequest(c.Request, params)
}

// catchAll returns the name of route's trailing "*name" segment, if any.
func catchAll(route string) string {
	seg := route[strings.LastIndex(route, "/")+1:]
	if !strings.HasPrefix(seg, "*") {
		return ""
	}
	return seg[1:]
}

func (p *Provider) makeResponse(c *gin.Context) httpprovider.Response {
	return exchange.NewResponse(c.Writer, c.Request)
}

// exceptionHandler answers with the 500 error body. When the response is
// already on the wire the failure is only logged.
func (p *Provider) exceptionHandler(c *gin.Context, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("name", httpprovider.ErrorName(err)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", exchange.StateOf(c.Request).ID),
	}

	if werr := exchange.WriteError(c.Writer, c.Request, err); werr != nil {
		if errors.Is(werr, exchange.ErrResponseWritten) {
			p.logger.Warn("Request failed after response was sent", fields...)
		} else {
			p.logger.Error("Failed to write error response", append(fields, zap.NamedError("write_error", werr))...)
		}
	} else {
		p.logger.Error("Request failed", fields...)
	}

	if p.reporter != nil {
		p.reporter.Report(c.Request.Context(), err)
	}
}
