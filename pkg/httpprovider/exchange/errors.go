package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrResponseWritten is recorded when a write is attempted after the
	// response was already sent.
	ErrResponseWritten = errors.New("cannot write response: already sent")
	ErrNoBody          = errors.New("request has no body to bind")
	ErrUnsupportedBind = errors.New("request body media type cannot be bound")
)

// SyntaxError reports a body that does not parse in its declared format.
type SyntaxError struct {
	Format string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s body: %v", e.Format, e.Err)
}

func (e *SyntaxError) Name() string  { return "SyntaxError" }
func (e *SyntaxError) Unwrap() error { return e.Err }

// PayloadTooLargeError reports a body over the configured limit.
type PayloadTooLargeError struct {
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return "request entity too large"
}

func (e *PayloadTooLargeError) Name() string { return "PayloadTooLargeError" }

// Upload failure codes.
const (
	CodeUnexpectedFile = "LIMIT_UNEXPECTED_FILE"
	CodeFileSize       = "LIMIT_FILE_SIZE"
	CodeMalformed      = "MALFORMED_MULTIPART"
)

var uploadMessages = map[string]string{
	CodeUnexpectedFile: "Unexpected field",
	CodeFileSize:       "File too large",
	CodeMalformed:      "Malformed part data",
}

// MulterError reports an upload the endpoint's file options reject.
type MulterError struct {
	Code  string
	Field string
	Err   error
}

func (e *MulterError) Error() string {
	msg, ok := uploadMessages[e.Code]
	if !ok {
		msg = e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MulterError) Name() string  { return "MulterError" }
func (e *MulterError) Unwrap() error { return e.Err }
