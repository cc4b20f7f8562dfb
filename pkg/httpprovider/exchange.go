package httpprovider

import (
	"context"
	"net/http"
	"time"
)

// Params holds matched path parameters.
type Params map[string]string

// QueryParams holds parsed query string values. A key maps to one or more
// values; absent keys have none.
type QueryParams map[string][]string

// Get returns the first value for key, or "" when absent.
func (q QueryParams) Get(key string) string {
	if vs := q[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Lookup returns the first value for key and whether the key was present.
func (q QueryParams) Lookup(key string) (string, bool) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values returns every value given for key.
func (q QueryParams) Values(key string) []string {
	return q[key]
}

// Has reports whether key was present in the query string.
func (q QueryParams) Has(key string) bool {
	_, ok := q[key]
	return ok
}

// UploadedFile describes a file stored by the upload stage.
type UploadedFile struct {
	FieldName    string `json:"fieldname"`
	OriginalName string `json:"originalname"`
	Encoding     string `json:"encoding"`
	MimeType     string `json:"mimetype"`
	Destination  string `json:"destination"`
	FileName     string `json:"filename"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
}

// Request is the normalized, read-only view of an incoming request.
type Request interface {
	Context() context.Context
	// Method is the request method in upper case.
	Method() string
	// URL is the request target as received (path and query).
	URL() string
	Path() string
	Protocol() string
	Secure() bool
	IP() string
	Hostname() string

	Header(name string) string
	HeaderValues(name string) []string

	// Params returns a copy of the matched path parameters.
	Params() Params
	Param(name string) string
	// QueryParams returns a copy of the parsed query string.
	QueryParams() QueryParams
	Query(name string) string

	// Body is the parsed request body: map[string]any for JSON objects,
	// URL-encoded and multipart forms, and XML documents. It is an empty
	// map when the request carried no parseable body.
	Body() any
	// Bind decodes the raw JSON or XML body into v.
	Bind(v any) error
	File(field string) *UploadedFile
	Files(field string) []*UploadedFile
	// Local returns a value stored by an earlier middleware through
	// Response.SetLocal.
	Local(key string) (any, bool)

	Accepts(types ...string) (string, bool)
	AcceptsCharsets(charsets ...string) (string, bool)
	AcceptsEncodings(encodings ...string) (string, bool)
	AcceptsLanguages(langs ...string) (string, bool)
	Is(types ...string) (string, bool)

	Native() *http.Request
}

// CookieOptions controls Set-Cookie attributes.
type CookieOptions struct {
	MaxAge   time.Duration
	Expires  time.Time
	HTTPOnly bool
	Path     string
	Domain   string
	Secure   bool
	// SameSite is one of "lax", "strict" or "none"; empty leaves it unset.
	SameSite string
	Encode   func(string) string
}

// Response is the chainable view over the response writer.
type Response interface {
	Status(code int) Response
	// Send writes body: strings as HTML, byte slices as octet-stream, nil
	// as an empty body and anything else as JSON.
	Send(body any) Response
	JSON(body any) Response
	ContentType(t string) Response
	Header(field string, values ...string) Response
	Headers(fields map[string]string) Response
	Cookie(name string, value any, opts ...CookieOptions) Response
	ClearCookie(name string, opts ...CookieOptions) Response
	Redirect(url string)
	RedirectStatus(status int, url string)
	// SetLocal stores a value visible to later stages through Request.Local.
	SetLocal(key string, value any) Response

	StatusCode() int
	Written() bool
	// Err returns the first write or encoding failure.
	Err() error
	Native() http.ResponseWriter
}
