package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider/exchange"
)

// result captures one middleware invocation outside any framework.
type result struct {
	rec    *httptest.ResponseRecorder
	req    httpprovider.Request
	called bool
}

func run(t *testing.T, mw httpprovider.Middleware, r *http.Request) result {
	t.Helper()

	rec := httptest.NewRecorder()
	_, r = exchange.Begin(rec, r)
	req := exchange.NewRequest(r, nil)
	res := exchange.NewResponse(rec, r)

	var called bool
	err := mw(req, res, func() { called = true })
	require.NoError(t, err)
	return result{rec: rec, req: req, called: called}
}

func withAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}
