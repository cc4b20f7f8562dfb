package chiprovider

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/internal/server"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithBodyLimit(limit int64) Option {
	return func(p *Provider) { p.bodyLimit = limit }
}

func WithXML(enabled bool) Option {
	return func(p *Provider) { p.xml = enabled }
}

func WithUploadDir(dir string) Option {
	return func(p *Provider) { p.uploadDir = dir }
}

func WithMaxFileSize(size int64) Option {
	return func(p *Provider) { p.maxFileSize = size }
}

func WithServer(srv server.Server) Option {
	return func(p *Provider) { p.server = srv }
}

func WithReporter(r httpprovider.ErrorReporter) Option {
	return func(p *Provider) { p.reporter = r }
}

func WithObserver(o httpprovider.Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// WithPrelude adds net/http middleware ahead of the provider's own stages.
func WithPrelude(mws ...func(http.Handler) http.Handler) Option {
	return func(p *Provider) { p.prelude = append(p.prelude, mws...) }
}

// FromSettings translates driver settings into options. CORS settings are
// not supported by this driver and are reported once at construction.
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
		opts = append(opts, func(p *Provider) { p.corsIgnored = true })
	}
	return opts
}
