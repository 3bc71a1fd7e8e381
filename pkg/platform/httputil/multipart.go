package httputil

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	dErrors "facepay/pkg/domain-errors"
)

// Upload is a single file read from a multipart form.
type Upload struct {
	Data     []byte
	MimeType string
	Filename string
}

// ParseMultipart parses a multipart form held in memory up to maxBytes.
func ParseMultipart(r *http.Request, maxBytes int64) error {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return dErrors.New(dErrors.CodeValidation, "upload exceeds size limit")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	return nil
}

// ReadImage reads the named file field, requiring an image/* content type and
// a size of at most maxBytes. ParseMultipart must have been called.
func ReadImage(r *http.Request, field string, maxBytes int64) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", field))
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds %d bytes", field, maxBytes))
	}

	mimeType := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, dErrors.New(dErrors.CodeValidation, "only image files are allowed")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read upload")
	}
	if int64(len(data)) > maxBytes {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds %d bytes", field, maxBytes))
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is empty", field))
	}

	return &Upload{Data: data, MimeType: mimeType, Filename: header.Filename}, nil
}
