package httpprovider

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ReadyFunc is invoked once the provider accepts connections.
type ReadyFunc func() error

// Provider binds the endpoint registration contract to a concrete HTTP
// serving mechanism.
type Provider interface {
	// RegisterEndpoint registers a handler for a route and method. It fails
	// when the method type is not supported.
	RegisterEndpoint(opts EndpointOptions) error

	// BootstrapProvider starts accepting connections on port and calls
	// onReady, when non-nil, once listening.
	BootstrapProvider(port int, onReady ReadyFunc) error
}

// FactoryOptions configure MakeProvider.
type FactoryOptions struct {
	Port    int
	OnReady ReadyFunc
	// Endpoints are registered before the provider starts listening.
	// Neither framework synchronizes route registration with serving, so
	// endpoints added after bootstrap must not race in-flight requests.
	Endpoints []EndpointOptions
}

// Factory builds the underlying framework app, wraps it in a provider and
// starts listening.
type Factory interface {
	MakeProvider(opts FactoryOptions) (Provider, error)
}

// ErrorReporter receives failures translated into the error body.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// Observer receives one call per completed exchange. Route is the
// registered pattern, empty when no route matched.
type Observer interface {
	ObserveExchange(method, route string, status int, elapsed time.Duration)
}

// CORSSettings is the framework-neutral CORS policy.
type CORSSettings struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// Settings are shared by every driver factory.
type Settings struct {
	Logger *zap.Logger

	// BodyLimit caps parsed bodies in bytes. Zero selects the default.
	BodyLimit int64
	// DisableXML turns off XML body parsing.
	DisableXML bool
	// UploadDir is the default FileDestination.
	UploadDir string
	// MaxFileSize caps each uploaded file in bytes. Zero means unlimited.
	MaxFileSize int64

	// Host is the listen address, empty for all interfaces.
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Reporter ErrorReporter
	Observer Observer
	CORS     *CORSSettings
	// Prelude runs before the provider's own global stages.
	Prelude []func(http.Handler) http.Handler
}
