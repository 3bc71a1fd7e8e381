package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"testing"

	"facepay/internal/face"
)

// MultipartBody encodes fields and an optional photo the way a merchant
// terminal uploads them. It returns the body and its Content-Type.
func MultipartBody(t testing.TB, fields map[string]string, photo *face.Photo) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := mw.WriteField(name, fields[name]); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}

	if photo != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="photo"; filename="photo.jpg"`)
		header.Set("Content-Type", photo.MimeType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create photo part: %v", err)
		}
		if _, err := part.Write(photo.Data); err != nil {
			t.Fatalf("write photo: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

// MultipartRequest builds an httptest request carrying a multipart upload.
func MultipartRequest(t testing.TB, method, target string, fields map[string]string, photo *face.Photo) *http.Request {
	t.Helper()
	body, contentType := MultipartBody(t, fields, photo)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// PhotoPtr is shorthand for a labelled fixture photo passed by pointer.
func PhotoPtr(label string) *face.Photo {
	p := Photo(label)
	return &p
}

// TextFile is a non-image upload used to exercise content type checks.
func TextFile(content string) *face.Photo {
	return &face.Photo{Data: []byte(content), MimeType: "text/plain; charset=utf-8"}
}
