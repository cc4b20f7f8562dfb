package httpprovider

import (
	"errors"
	"fmt"
	"net/http"
)

// Registration errors. Match them with errors.Is; the wrapped message
// carries the offending value verbatim.
var (
	ErrUnsupportedMethod = errors.New("unsupported method type")
	ErrInvalidURI        = errors.New("invalid endpoint uri")
	ErrNilHandler        = errors.New("endpoint handler is nil")
	ErrRouteConflict     = errors.New("route registration rejected")
	ErrUnknownDriver     = errors.New("unknown provider driver")
	ErrInvalidFileOption = errors.New("invalid file option")
)

// DefaultErrorName is reported for errors that do not carry a name.
const DefaultErrorName = "Error"

// Named is implemented by errors that expose a name for the error body.
type Named interface {
	Name() string
}

// ErrorBody is the single error contract surfaced to clients for uncaught
// handler failures.
type ErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// NewErrorBody builds the 500 error body for err.
func NewErrorBody(err error) ErrorBody {
	return ErrorBody{
		Name:    ErrorName(err),
		Message: errorMessage(err),
		Status:  http.StatusInternalServerError,
	}
}

// ErrorName returns the name of the first Named error in err's chain, or
// DefaultErrorName.
func ErrorName(err error) string {
	var named Named
	if errors.As(err, &named) {
		if n := named.Name(); n != "" {
			return n
		}
	}
	return DefaultErrorName
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// PanicError wraps a value recovered from a panicking handler or middleware.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Name() string { return "PanicError" }

// Unwrap exposes the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
