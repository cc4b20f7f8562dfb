package ginprovider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type registration struct {
	method   string
	path     string
	handlers int
}

type fakeEngine struct {
	stages        int
	registrations []registration
}

func (f *fakeEngine) record(method, path string, handlers []gin.HandlerFunc) gin.IRoutes {
	f.registrations = append(f.registrations, registration{method: method, path: path, handlers: len(handlers)})
	return nil
}

func (f *fakeEngine) Use(middleware ...gin.HandlerFunc) gin.IRoutes {
	f.stages += len(middleware)
	return nil
}

func (f *fakeEngine) GET(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("get", p, h)
}

func (f *fakeEngine) POST(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("post", p, h)
}

func (f *fakeEngine) PUT(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("put", p, h)
}

func (f *fakeEngine) PATCH(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("patch", p, h)
}

func (f *fakeEngine) DELETE(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("delete", p, h)
}

func (f *fakeEngine) OPTIONS(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("options", p, h)
}

func (f *fakeEngine) Any(p string, h ...gin.HandlerFunc) gin.IRoutes {
	return f.record("all", p, h)
}

func (f *fakeEngine) ServeHTTP(http.ResponseWriter, *http.Request) {}

type fakeServer struct {
	port     int
	handler  http.Handler
	startErr error
	shutdown int
}

func (s *fakeServer) Start(port int, handler http.Handler, onReady func() error) error {
	s.port = port
	s.handler = handler
	if s.startErr != nil {
		return s.startErr
	}
	if onReady != nil {
		return onReady()
	}
	return nil
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.shutdown++
	return nil
}

func (s *fakeServer) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: s.port} }

func noopHandler(httpprovider.Request, httpprovider.Response) error { return nil }

func noopMiddleware(_ httpprovider.Request, _ httpprovider.Response, next httpprovider.Next) error {
	next()
	return nil
}

func TestNew_InstallsGlobalStages(t *testing.T) {
	engine := &fakeEngine{}
	New(engine)
	assert.Equal(t, 3, engine.stages)

	engine = &fakeEngine{}
	New(engine, WithStages(func(*gin.Context) {}), WithCORS(httpprovider.CORSSettings{}))
	assert.Equal(t, 5, engine.stages)
}

func TestRegisterEndpoint_Dispatch(t *testing.T) {
	tests := []struct {
		method httpprovider.Method
		want   string
	}{
		{httpprovider.MethodGet, "get"},
		{httpprovider.MethodPost, "post"},
		{httpprovider.MethodPut, "put"},
		{httpprovider.MethodPatch, "patch"},
		{httpprovider.MethodDelete, "delete"},
		{httpprovider.MethodOptions, "options"},
		{httpprovider.MethodAll, "all"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			engine := &fakeEngine{}
			p := New(engine, WithLogger(zap.NewNop()))

			err := p.RegisterEndpoint(httpprovider.EndpointOptions{
				Type:       tt.method,
				URI:        "/test",
				Middleware: []httpprovider.Middleware{noopMiddleware},
				Handler:    noopHandler,
			})

			require.NoError(t, err)
			require.Len(t, engine.registrations, 1)
			assert.Equal(t, registration{method: tt.want, path: "/test", handlers: 3}, engine.registrations[0])
		})
	}
}

func TestRegisterEndpoint_UnsupportedMethod(t *testing.T) {
	for _, method := range []string{"HEAD", "RANDOM", "RANDOM2", "get"} {
		t.Run(method, func(t *testing.T) {
			engine := &fakeEngine{}
			p := New(engine)

			err := p.RegisterEndpoint(httpprovider.EndpointOptions{
				Type:    httpprovider.Method(method),
				URI:     "/test",
				Handler: noopHandler,
			})

			require.ErrorIs(t, err, httpprovider.ErrUnsupportedMethod)
			assert.Contains(t, err.Error(), method)
			assert.Empty(t, engine.registrations)
		})
	}
}

func TestRegisterEndpoint_DoesNotMutateMiddleware(t *testing.T) {
	engine := &fakeEngine{}
	p := New(engine)

	mws := make([]httpprovider.Middleware, 1, 4)
	mws[0] = noopMiddleware

	require.NoError(t, p.RegisterEndpoint(httpprovider.EndpointOptions{
		Type:       httpprovider.MethodGet,
		URI:        "/test",
		Middleware: mws,
		Handler:    noopHandler,
	}))

	assert.Len(t, mws, 1)
	assert.Nil(t, mws[:2][1])
}

func TestRegisterEndpoint_InvalidOptions(t *testing.T) {
	p := New(&fakeEngine{})

	err := p.RegisterEndpoint(httpprovider.EndpointOptions{Type: httpprovider.MethodGet, URI: "test", Handler: noopHandler})
	assert.ErrorIs(t, err, httpprovider.ErrInvalidURI)

	err = p.RegisterEndpoint(httpprovider.EndpointOptions{Type: httpprovider.MethodGet, URI: "/test"})
	assert.ErrorIs(t, err, httpprovider.ErrNilHandler)
}

func TestRegisterEndpoint_RouteConflict(t *testing.T) {
	p := New(gin.New())
	opts := httpprovider.EndpointOptions{Type: httpprovider.MethodGet, URI: "/dup", Handler: noopHandler}

	require.NoError(t, p.RegisterEndpoint(opts))
	err := p.RegisterEndpoint(opts)

	assert.ErrorIs(t, err, httpprovider.ErrRouteConflict)
}

func TestRegisterEndpoint_ConflictLeavesNoPartialRoute(t *testing.T) {
	p := New(gin.New())
	require.NoError(t, p.RegisterEndpoint(httpprovider.EndpointOptions{Type: httpprovider.MethodPost, URI: "/y", Handler: noopHandler}))

	err := p.RegisterEndpoint(httpprovider.EndpointOptions{
		Type: httpprovider.MethodAll,
		URI:  "/y",
		Handler: func(_ httpprovider.Request, res httpprovider.Response) error {
			res.Send("all")
			return nil
		},
	})
	require.ErrorIs(t, err, httpprovider.ErrRouteConflict)

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/y", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "all")

	require.NoError(t, p.RegisterEndpoint(httpprovider.EndpointOptions{Type: httpprovider.MethodGet, URI: "/y", Handler: noopHandler}))
}

func TestBootstrapProvider(t *testing.T) {
	srv := &fakeServer{}
	engine := &fakeEngine{}
	p := New(engine, WithServer(srv))

	ready := 0
	err := p.BootstrapProvider(3000, func() error {
		ready++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3000, srv.port)
	assert.Equal(t, 1, ready)
	assert.Same(t, engine, srv.handler)
	assert.Equal(t, 3000, p.Addr().(*net.TCPAddr).Port)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, 1, srv.shutdown)
}

func TestBootstrapProvider_NilReadyAndErrors(t *testing.T) {
	p := New(&fakeEngine{}, WithServer(&fakeServer{}))
	assert.NoError(t, p.BootstrapProvider(3000, nil))

	listenErr := errors.New("address in use")
	p = New(&fakeEngine{}, WithServer(&fakeServer{startErr: listenErr}))
	assert.ErrorIs(t, p.BootstrapProvider(3000, nil), listenErr)
}
