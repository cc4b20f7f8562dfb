package chiprovider

import (
	"github.com/go-chi/chi/v5"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// DriverName is the registry name of this adapter.
const DriverName = "chi"

func init() {
	httpprovider.RegisterDriver(DriverName, func(s httpprovider.Settings) httpprovider.Factory {
		return NewFactory(FromSettings(s)...)
	})
}

// Factory builds a chi router, wraps it and bootstraps it.
type Factory struct {
	opts      []Option
	newEngine func() Engine
}

var _ httpprovider.Factory = (*Factory)(nil)

// NewFactory returns a factory applying opts to every provider it makes.
func NewFactory(opts ...Option) *Factory {
	return &Factory{
		opts:      opts,
		newEngine: func() Engine { return chi.NewRouter() },
	}
}

// MakeProvider creates the router, installs the provider, registers
// opts.Endpoints and starts listening on opts.Port.
func (f *Factory) MakeProvider(opts httpprovider.FactoryOptions) (httpprovider.Provider, error) {
	p := New(f.newEngine(), f.opts...)
	for _, ep := range opts.Endpoints {
		if err := p.RegisterEndpoint(ep); err != nil {
			return nil, err
		}
	}
	if err := p.BootstrapProvider(opts.Port, opts.OnReady); err != nil {
		return nil, err
	}
	return p, nil
}
