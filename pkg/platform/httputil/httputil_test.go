package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "facepay/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"already enrolled", dErrors.New(dErrors.CodeAlreadyEnrolled, "wallet already enrolled"), http.StatusConflict, "already_enrolled"},
		{"not recognized", dErrors.New(dErrors.CodeNotRecognized, "face not recognized"), http.StatusNotFound, "not_recognized"},
		{"identity mismatch", dErrors.New(dErrors.CodeIdentityMismatch, "mismatch"), http.StatusForbidden, "identity_mismatch"},
		{"upstream", dErrors.New(dErrors.CodeUpstream, "face service"), http.StatusBadGateway, "upstream_error"},
		{"ledger", dErrors.New(dErrors.CodeLedger, "transfer"), http.StatusBadGateway, "ledger_error"},
		{"credential", dErrors.New(dErrors.CodeCredential, "bad key"), http.StatusBadRequest, "credential_error"},
		{"validation", dErrors.New(dErrors.CodeValidation, "amount must be positive"), http.StatusBadRequest, "validation_error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func multipartRequest(t *testing.T, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="face.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("walletAddress", "0xabc"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/face/enroll", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadImage(t *testing.T) {
	t.Run("reads image upload", func(t *testing.T) {
		req := multipartRequest(t, "photo", "image/jpeg", []byte("jpegbytes"))
		require.NoError(t, ParseMultipart(req, 1024))

		upload, err := ReadImage(req, "photo", 1024)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpegbytes"), upload.Data)
		assert.Equal(t, "image/jpeg", upload.MimeType)
		assert.Equal(t, "0xabc", req.FormValue("walletAddress"))
	})

	t.Run("rejects non-image content", func(t *testing.T) {
		req := multipartRequest(t, "photo", "application/pdf", []byte("%PDF"))
		require.NoError(t, ParseMultipart(req, 1024))

		_, err := ReadImage(req, "photo", 1024)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		req := multipartRequest(t, "photo", "image/png", bytes.Repeat([]byte{1}, 64))
		require.NoError(t, ParseMultipart(req, 1024))

		_, err := ReadImage(req, "photo", 32)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing field", func(t *testing.T) {
		req := multipartRequest(t, "other", "image/png", []byte{1})
		require.NoError(t, ParseMultipart(req, 1024))

		_, err := ReadImage(req, "photo", 1024)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
