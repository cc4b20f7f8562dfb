package exchange

import (
	"context"
	"encoding/xml"
	"net"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

type request struct {
	native *http.Request
	state  *State
	method string
	params httpprovider.Params
	query  httpprovider.QueryParams
}

// NewRequest returns the normalized view of r. Params and query values are
// copied, so later changes to the native request do not leak into the view.
func NewRequest(r *http.Request, params httpprovider.Params) httpprovider.Request {
	p := make(httpprovider.Params, len(params))
	for k, v := range params {
		p[k] = v
	}
	return &request{
		native: r,
		state:  StateOf(r),
		method: strings.ToUpper(r.Method),
		params: p,
		query:  copyQuery(httpprovider.QueryParams(r.URL.Query())),
	}
}

func copyQuery(q httpprovider.QueryParams) httpprovider.QueryParams {
	out := make(httpprovider.QueryParams, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (r *request) Context() context.Context { return r.native.Context() }
func (r *request) Method() string           { return r.method }

func (r *request) URL() string {
	if r.native.RequestURI != "" {
		return r.native.RequestURI
	}
	return r.native.URL.RequestURI()
}

func (r *request) Path() string { return r.native.URL.Path }

func (r *request) Protocol() string {
	if r.native.TLS != nil {
		return "https"
	}
	return "http"
}

func (r *request) Secure() bool { return r.native.TLS != nil }

func (r *request) IP() string {
	host, _, err := net.SplitHostPort(r.native.RemoteAddr)
	if err != nil {
		return r.native.RemoteAddr
	}
	return host
}

func (r *request) Hostname() string {
	host := r.native.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func (r *request) Header(name string) string         { return r.native.Header.Get(name) }
func (r *request) HeaderValues(name string) []string { return r.native.Header.Values(name) }

func (r *request) Params() httpprovider.Params {
	out := make(httpprovider.Params, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

func (r *request) Param(name string) string { return r.params[name] }

func (r *request) QueryParams() httpprovider.QueryParams { return copyQuery(r.query) }
func (r *request) Query(name string) string              { return r.query.Get(name) }

func (r *request) Body() any { return r.state.Body }

func (r *request) Bind(v any) error {
	if len(r.state.Raw) == 0 {
		return ErrNoBody
	}
	switch {
	case r.state.RawType == "application/json", strings.HasSuffix(r.state.RawType, "+json"):
		return json.Unmarshal(r.state.Raw, v)
	case strings.HasSuffix(r.state.RawType, "/xml"), strings.HasSuffix(r.state.RawType, "+xml"):
		return xml.Unmarshal(r.state.Raw, v)
	}
	return ErrUnsupportedBind
}

func (r *request) File(field string) *httpprovider.UploadedFile {
	if fs := r.state.Files[field]; len(fs) > 0 {
		return fs[0]
	}
	return nil
}

func (r *request) Files(field string) []*httpprovider.UploadedFile {
	return append([]*httpprovider.UploadedFile(nil), r.state.Files[field]...)
}

func (r *request) Local(key string) (any, bool) {
	v, ok := r.state.Locals[key]
	return v, ok
}

func (r *request) Accepts(types ...string) (string, bool) {
	return Accepts(r.native.Header.Get("Accept"), types...)
}

func (r *request) AcceptsCharsets(charsets ...string) (string, bool) {
	return AcceptsCharsets(r.native.Header.Get("Accept-Charset"), charsets...)
}

func (r *request) AcceptsEncodings(encodings ...string) (string, bool) {
	return AcceptsEncodings(r.native.Header.Get("Accept-Encoding"), encodings...)
}

func (r *request) AcceptsLanguages(langs ...string) (string, bool) {
	return AcceptsLanguages(r.native.Header.Get("Accept-Language"), langs...)
}

func (r *request) Is(types ...string) (string, bool) {
	return Is(r.native.Header.Get("Content-Type"), types...)
}

func (r *request) Native() *http.Request { return r.native }
