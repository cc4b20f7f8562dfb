package exchange

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// DefaultBodyLimit caps parsed bodies when no limit is configured.
const DefaultBodyLimit int64 = 100 << 10

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyXML
	bodyForm
)

// BodyParser decodes JSON, XML and URL-encoded bodies into State.Body.
// Multipart bodies are left to the Uploader.
type BodyParser struct {
	Limit int64
	XML   bool
}

// NewBodyParser returns a parser with the given limit, zero meaning
// DefaultBodyLimit.
func NewBodyParser(limit int64, xml bool) *BodyParser {
	return &BodyParser{Limit: limit, XML: xml}
}

func (p *BodyParser) limit() int64 {
	if p.Limit > 0 {
		return p.Limit
	}
	return DefaultBodyLimit
}

func (p *BodyParser) kind(mediaType string) bodyKind {
	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return bodyJSON
	case mediaType == "application/x-www-form-urlencoded":
		return bodyForm
	case p.XML && (strings.HasSuffix(mediaType, "/xml") || strings.HasSuffix(mediaType, "+xml")):
		return bodyXML
	}
	return bodyNone
}

// Parse reads and decodes the body of r into st. It runs at most once per
// exchange. The raw bytes are put back on r so native handlers can still
// read them.
func (p *BodyParser) Parse(r *http.Request, st *State) error {
	if st.bodyParsed {
		return nil
	}
	st.bodyParsed = true

	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	mediaType := MediaType(r.Header.Get("Content-Type"))
	kind := p.kind(mediaType)
	if kind == bodyNone {
		return nil
	}

	limit := p.limit()
	if r.ContentLength > limit {
		return &PayloadTooLargeError{Limit: limit}
	}
	raw, err := readLimited(r.Body, limit)
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return nil
	}

	var body any
	switch kind {
	case bodyJSON:
		if err := strictJSON(raw); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return &SyntaxError{Format: "json", Err: err}
		}
	case bodyXML:
		if body, err = decodeXML(raw); err != nil {
			return err
		}
	case bodyForm:
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return &SyntaxError{Format: "urlencoded", Err: err}
		}
		body = formMap(values)
	}

	st.Body = body
	st.Raw = raw
	st.RawType = mediaType
	return nil
}

// strictJSON accepts only objects and arrays at the top level.
func strictJSON(raw []byte) error {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return &SyntaxError{Format: "json", Err: errors.New("top-level value must be an object or array")}
	}
	return nil
}

func readLimited(body io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, &PayloadTooLargeError{Limit: limit}
	}
	return raw, nil
}

// formMap flattens form values: single values as strings, repeated keys as
// string slices.
func formMap(values url.Values) map[string]any {
	m := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			m[k] = vs[0]
			continue
		}
		m[k] = append([]string(nil), vs...)
	}
	return m
}

func addFormValue(m map[string]any, key, value string) {
	switch cur := m[key].(type) {
	case nil:
		m[key] = value
	case string:
		m[key] = []string{cur, value}
	case []string:
		m[key] = append(cur, value)
	default:
		m[key] = value
	}
}

// MediaType returns the lower-cased media type of a Content-Type value
// without parameters.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}
