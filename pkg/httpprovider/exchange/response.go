package exchange

import (
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

type response struct {
	w     http.ResponseWriter
	r     *http.Request
	state *State
}

// NewResponse returns the chainable view over w. Pending status, locals and
// the written flag live in the exchange State, so every view of the same
// exchange agrees.
func NewResponse(w http.ResponseWriter, r *http.Request) httpprovider.Response {
	return &response{w: w, r: r, state: StateOf(r)}
}

// Written reports whether w has already sent its header. Framework writers
// expose this through Written() or a non-zero Status().
func Written(w http.ResponseWriter) bool {
	switch ww := w.(type) {
	case interface{ Written() bool }:
		return ww.Written()
	case interface{ Status() int }:
		return ww.Status() != 0
	}
	return false
}

func (r *response) fail(err error) {
	if r.state.responseErr == nil {
		r.state.responseErr = err
	}
}

func (r *response) Status(code int) httpprovider.Response {
	r.state.status = code
	return r
}

func (r *response) StatusCode() int {
	if r.Written() {
		if sw, ok := r.w.(interface{ Status() int }); ok && sw.Status() != 0 {
			return sw.Status()
		}
	}
	if r.state.status != 0 {
		return r.state.status
	}
	return http.StatusOK
}

func (r *response) Written() bool { return r.state.wrote || Written(r.w) }

func (r *response) Err() error { return r.state.responseErr }

func (r *response) Native() http.ResponseWriter { return r.w }

func (r *response) defaultType(t string) {
	if r.w.Header().Get("Content-Type") == "" {
		r.w.Header().Set("Content-Type", t)
	}
}

func (r *response) write(data []byte) {
	if r.Written() {
		r.fail(ErrResponseWritten)
		return
	}
	code := r.state.status
	if code == 0 {
		code = http.StatusOK
	}
	r.w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	r.w.WriteHeader(code)
	r.state.wrote = true
	if len(data) == 0 || r.r.Method == http.MethodHead {
		return
	}
	if _, err := r.w.Write(data); err != nil {
		r.fail(err)
	}
}

func (r *response) Send(body any) httpprovider.Response {
	switch v := body.(type) {
	case nil:
		r.write(nil)
	case string:
		r.defaultType("text/html; charset=utf-8")
		r.write([]byte(v))
	case []byte:
		r.defaultType("application/octet-stream")
		r.write(v)
	default:
		return r.JSON(v)
	}
	return r
}

func (r *response) JSON(body any) httpprovider.Response {
	data, err := json.Marshal(body)
	if err != nil {
		r.fail(err)
		return r
	}
	r.defaultType("application/json; charset=utf-8")
	r.write(data)
	return r
}

func (r *response) ContentType(t string) httpprovider.Response {
	if !strings.Contains(t, "/") {
		if full := mime.TypeByExtension("." + strings.TrimPrefix(t, ".")); full != "" {
			t = full
		}
	}
	r.w.Header().Set("Content-Type", t)
	return r
}

func (r *response) Header(field string, values ...string) httpprovider.Response {
	h := r.w.Header()
	h.Del(field)
	for _, v := range values {
		h.Add(field, v)
	}
	return r
}

func (r *response) Headers(fields map[string]string) httpprovider.Response {
	for k, v := range fields {
		r.w.Header().Set(k, v)
	}
	return r
}

func encodeCookie(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}

func cookieOptions(opts []httpprovider.CookieOptions) httpprovider.CookieOptions {
	var o httpprovider.CookieOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// Cookie sets a cookie. Non-string values are stored as "j:" followed by
// their JSON encoding.
func (r *response) Cookie(name string, value any, opts ...httpprovider.CookieOptions) httpprovider.Response {
	var val string
	switch v := value.(type) {
	case string:
		val = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			r.fail(err)
			return r
		}
		val = "j:" + string(data)
	}

	o := cookieOptions(opts)
	if o.Encode != nil {
		val = o.Encode(val)
	} else {
		val = encodeCookie(val)
	}

	c := &http.Cookie{
		Name:     name,
		Value:    val,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: sameSite(o.SameSite),
	}
	switch {
	case o.MaxAge != 0:
		c.Expires = time.Now().Add(o.MaxAge)
		c.MaxAge = int(o.MaxAge / time.Second)
	case !o.Expires.IsZero():
		c.Expires = o.Expires
	}
	http.SetCookie(r.w, c)
	return r
}

func (r *response) ClearCookie(name string, opts ...httpprovider.CookieOptions) httpprovider.Response {
	o := cookieOptions(opts)
	http.SetCookie(r.w, &http.Cookie{
		Name:     name,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HttpOnly: o.HTTPOnly,
		SameSite: sameSite(o.SameSite),
		Expires:  time.Unix(1, 0),
		MaxAge:   -1,
	})
	return r
}

func (r *response) Redirect(url string) {
	r.RedirectStatus(http.StatusFound, url)
}

func (r *response) RedirectStatus(status int, url string) {
	if r.Written() {
		r.fail(ErrResponseWritten)
		return
	}
	r.state.status = status
	http.Redirect(r.w, r.r, url, status)
	r.state.wrote = true
}

func (r *response) SetLocal(key string, value any) httpprovider.Response {
	r.state.Locals[key] = value
	return r
}

// WriteError writes the 500 error body for err. It returns
// ErrResponseWritten when the response was already sent.
func WriteError(w http.ResponseWriter, r *http.Request, err error) error {
	res := NewResponse(w, r)
	if res.Written() {
		return ErrResponseWritten
	}
	body := httpprovider.NewErrorBody(err)
	prev := res.Err()
	w.Header().Del("Content-Type")
	res.Status(body.Status).JSON(body)
	if werr := res.Err(); werr != prev {
		return werr
	}
	return nil
}
