package reporting

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/config"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider/exchange"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}

func (t *recordingTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *recordingTransport) Flush(time.Duration) bool { return true }

func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }

func (t *recordingTransport) Close() {}

func (t *recordingTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

type namedError struct{}

func (namedError) Error() string { return "boom" }
func (namedError) Name() string  { return "BoomError" }

func newReporter(t *testing.T) (*Reporter, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{}
	r, err := New(config.SentryConfig{
		DSN:         "https://public@example.com/1",
		Environment: "test",
		SampleRate:  1.0,
	}, zap.NewNop(), func(o *sentry.ClientOptions) {
		o.Transport = transport
	})
	require.NoError(t, err)
	return r, transport
}

func TestNew_Disabled(t *testing.T) {
	r, err := New(config.SentryConfig{}, zap.NewNop())
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := New(config.SentryConfig{DSN: "::not a dsn"}, zap.NewNop())
	assert.Error(t, err)
}

func TestReporter_Report(t *testing.T) {
	r, transport := newReporter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(exchange.RequestIDHeader, "req-1")
	_, req = exchange.Begin(w, req)

	r.Report(req.Context(), namedError{})
	assert.True(t, r.Flush(time.Second))

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "BoomError", events[0].Tags["error.name"])
	assert.Equal(t, "req-1", events[0].Tags["request_id"])
	assert.Equal(t, "test", events[0].Environment)
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "boom", events[0].Exception[len(events[0].Exception)-1].Value)
}

func TestReporter_ReportWithoutExchange(t *testing.T) {
	r, transport := newReporter(t)

	r.Report(context.Background(), errors.New("plain"))
	r.Report(context.Background(), nil)

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Error", events[0].Tags["error.name"])
	assert.NotContains(t, events[0].Tags, "request_id")
}
