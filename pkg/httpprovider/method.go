package httpprovider

import "fmt"

// Method is an endpoint method type accepted by RegisterEndpoint.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	// MethodAll matches every request method on the URI.
	MethodAll Method = "ALL"
	// MethodHead is part of the HTTP vocabulary but not supported for
	// registration.
	MethodHead Method = "HEAD"
)

// SupportedMethods lists the method types providers accept, in dispatch order.
var SupportedMethods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodOptions,
	MethodAll,
}

// Supported reports whether m is one of SupportedMethods. The comparison is
// exact, so "get" is not supported.
func (m Method) Supported() bool {
	for _, s := range SupportedMethods {
		if m == s {
			return true
		}
	}
	return false
}

// String returns the method type as given.
func (m Method) String() string {
	return string(m)
}

// ParseMethod converts s into a supported Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Supported() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, s)
	}
	return m, nil
}
