package exchange

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// maxFieldSize caps a single non-file multipart field.
const maxFieldSize = 1 << 20

// DefaultUploadDir is used when neither the endpoint nor the provider names
// a destination.
func DefaultUploadDir() string {
	return filepath.Join(os.TempDir(), "uploads")
}

// Uploader stores the files of a multipart/form-data request and merges its
// text fields into State.Body. With no Fields every file part is rejected.
type Uploader struct {
	Destination string
	Fields      []httpprovider.FileOption
	// MaxFileSize caps each file in bytes. Zero means unlimited.
	MaxFileSize int64
}

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	return MediaType(r.Header.Get("Content-Type")) == "multipart/form-data"
}

func (u *Uploader) destination() string {
	if u.Destination != "" {
		return u.Destination
	}
	return DefaultUploadDir()
}

// Handle consumes the multipart body of r. Files already stored are removed
// when a later part is rejected.
func (u *Uploader) Handle(r *http.Request, st *State) error {
	if !IsMultipart(r) || st.multipart {
		return nil
	}
	st.multipart = true

	mr, err := r.MultipartReader()
	if err != nil {
		return &MulterError{Code: CodeMalformed, Err: err}
	}

	limits := make(map[string]httpprovider.FileOption, len(u.Fields))
	for _, f := range u.Fields {
		limits[f.Name] = f
	}

	body, ok := st.Body.(map[string]any)
	if !ok {
		body = make(map[string]any)
	}
	files := make(map[string][]*httpprovider.UploadedFile)
	fail := func(err error) error {
		for _, list := range files {
			for _, f := range list {
				_ = os.Remove(f.Path)
			}
		}
		return err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(&MulterError{Code: CodeMalformed, Err: err})
		}

		field := part.FormName()
		if part.FileName() == "" {
			value, err := readLimited(part, maxFieldSize)
			part.Close()
			if err != nil {
				return fail(err)
			}
			addFormValue(body, field, string(value))
			continue
		}

		opt, ok := limits[field]
		if !ok || len(files[field]) >= opt.Limit() {
			part.Close()
			return fail(&MulterError{Code: CodeUnexpectedFile, Field: field})
		}
		f, err := u.store(part, field)
		part.Close()
		if err != nil {
			return fail(err)
		}
		files[field] = append(files[field], f)
	}

	st.Body = body
	for field, list := range files {
		st.Files[field] = append(st.Files[field], list...)
	}
	return nil
}

func (u *Uploader) store(part *multipart.Part, field string) (*httpprovider.UploadedFile, error) {
	dest := u.destination()
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(dest, name)
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}

	var src io.Reader = part
	if u.MaxFileSize > 0 {
		src = io.LimitReader(part, u.MaxFileSize+1)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing upload %s: %w", field, err)
	}
	if u.MaxFileSize > 0 && n > u.MaxFileSize {
		_ = os.Remove(path)
		return nil, &MulterError{Code: CodeFileSize, Field: field}
	}

	encoding := part.Header.Get("Content-Transfer-Encoding")
	if encoding == "" {
		encoding = "7bit"
	}
	return &httpprovider.UploadedFile{
		FieldName:    field,
		OriginalName: part.FileName(),
		Encoding:     encoding,
		MimeType:     part.Header.Get("Content-Type"),
		Destination:  dest,
		FileName:     name,
		Path:         path,
		Size:         n,
	}, nil
}
