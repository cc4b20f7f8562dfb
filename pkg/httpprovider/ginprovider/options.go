package ginprovider

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/internal/server"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger for exchange and failure logs.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBodyLimit caps parsed request bodies in bytes.
func WithBodyLimit(limit int64) Option {
	return func(p *Provider) { p.bodyLimit = limit }
}

// WithXML toggles XML body parsing.
func WithXML(enabled bool) Option {
	return func(p *Provider) { p.xml = enabled }
}

// WithUploadDir sets the destination for endpoints without a FileDestination.
func WithUploadDir(dir string) Option {
	return func(p *Provider) { p.uploadDir = dir }
}

// WithMaxFileSize caps each uploaded file in bytes.
func WithMaxFileSize(size int64) Option {
	return func(p *Provider) { p.maxFileSize = size }
}

// WithServer replaces the server used by BootstrapProvider.
func WithServer(srv server.Server) Option {
	return func(p *Provider) { p.server = srv }
}

// WithReporter forwards translated failures to r.
func WithReporter(r httpprovider.ErrorReporter) Option {
	return func(p *Provider) { p.reporter = r }
}

// WithObserver reports every completed exchange to o.
func WithObserver(o httpprovider.Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// WithStages adds gin handlers that run before the provider's own stages.
func WithStages(stages ...gin.HandlerFunc) Option {
	return func(p *Provider) { p.prelude = append(p.prelude, stages...) }
}

// WithCORS installs gin-contrib/cors as the first stage.
func WithCORS(settings httpprovider.CORSSettings) Option {
	return func(p *Provider) {
		p.prelude = append([]gin.HandlerFunc{cors.New(corsConfig(settings))}, p.prelude...)
	}
}

// WithPrelude adds net/http middleware ahead of the provider's own stages.
func WithPrelude(mws ...func(http.Handler) http.Handler) Option {
	return func(p *Provider) {
		for _, mw := range mws {
			p.prelude = append(p.prelude, wrapStd(mw))
		}
	}
}

// FromSettings translates driver settings into options.
func FromSettings(s httpprovider.Settings) []Option {
	cfg := server.DefaultConfig().Override(s.Host, s.ReadTimeout, s.WriteTimeout, s.IdleTimeout)

	opts := []Option{
		WithLogger(s.Logger),
		WithBodyLimit(s.BodyLimit),
		WithXML(!s.DisableXML),
		WithUploadDir(s.UploadDir),
		WithMaxFileSize(s.MaxFileSize),
		WithServer(server.New(cfg, s.Logger)),
		WithReporter(s.Reporter),
		WithObserver(s.Observer),
		WithPrelude(s.Prelude...),
	}
	if s.CORS != nil {
		opts = append(opts, WithCORS(*s.CORS))
	}
	return opts
}

func corsConfig(s httpprovider.CORSSettings) cors.Config {
	cfg := cors.Config{
		AllowMethods:     s.AllowMethods,
		AllowHeaders:     s.AllowHeaders,
		ExposeHeaders:    s.ExposeHeaders,
		AllowCredentials: s.AllowCredentials,
		MaxAge:           s.MaxAge,
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	for _, origin := range s.AllowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(s.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.AllowOrigins
	return cfg
}

// wrapStd runs a net/http middleware as a gin stage. The chain continues
// only if the middleware calls its next handler; a wrapped writer handed to
// next is not propagated.
func wrapStd(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
