// Package reporting forwards exchange failures to Sentry.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/config"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider/exchange"
)

// ErrDisabled is returned by New when no DSN is configured.
var ErrDisabled = errors.New("sentry reporting disabled")

// Reporter implements httpprovider.ErrorReporter on a dedicated hub.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// New creates a Reporter from cfg. Extra options are applied to the
// client options before the client is built.
func New(cfg config.SentryConfig, logger *zap.Logger, opts ...func(*sentry.ClientOptions)) (*Reporter, error) {
	if cfg.DSN == "" {
		return nil, ErrDisabled
	}

	co := sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
		Debug:       cfg.Debug,
	}
	for _, opt := range opts {
		opt(&co)
	}

	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	return &Reporter{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		logger: logger.Named("sentry"),
	}, nil
}

// Report captures err with the exchange's request ID and error name.
func (r *Reporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}

	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error.name", httpprovider.ErrorName(err))
		if st := exchange.FromContext(ctx); st != nil {
			scope.SetTag("request_id", st.ID)
		}
		if id := hub.CaptureException(err); id != nil {
			r.logger.Debug("Reported error", zap.String("event_id", string(*id)))
		}
	})
}

// Flush waits up to timeout for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

var _ httpprovider.ErrorReporter = (*Reporter)(nil)
