package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facepay/internal/enrollment/handler/mocks"
	"facepay/internal/enrollment/models"
	"facepay/internal/face"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/testutil"
)

type EnrollmentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestEnrollmentHandlerSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentHandlerSuite))
}

func (s *EnrollmentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), 1024)
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *EnrollmentHandlerSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *EnrollmentHandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(code, body["error"])
}

func (s *EnrollmentHandlerSuite) TestEnroll() {
	s.Run("created", func() {
		enrolledAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		s.service.EXPECT().
			Enroll(gomock.Any(), "0xC1", face.Photo{Data: testutil.Photo("alice").Data, MimeType: "image/jpeg"}).
			Return(&models.EnrolledIdentity{IdentityKey: "0xc1", TemplateRef: "tpl-1", EnrolledAt: enrolledAt}, nil)

		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": " 0xC1 "}, testutil.PhotoPtr("alice")))

		s.Equal(http.StatusCreated, w.Code)
		var res models.EnrollResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Equal("0xc1", res.WalletAddress)
		s.Equal("tpl-1", res.TemplateRef)
		s.True(res.IsEnrolled)
	})

	s.Run("already enrolled returns 409", func() {
		s.service.EXPECT().Enroll(gomock.Any(), "0xc1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeAlreadyEnrolled, "wallet already enrolled"))

		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": "0xc1"}, testutil.PhotoPtr("alice")))
		s.assertStatusAndError(w, http.StatusConflict, "already_enrolled")
	})

	s.Run("face service failure returns 502", func() {
		s.service.EXPECT().Enroll(gomock.Any(), "0xc1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUpstream, "face enrollment failed"))

		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": "0xc1"}, testutil.PhotoPtr("alice")))
		s.assertStatusAndError(w, http.StatusBadGateway, "upstream_error")
	})
}

// TestEnrollRejectsBadUploads verifies invalid uploads never reach the service.
func (s *EnrollmentHandlerSuite) TestEnrollRejectsBadUploads() {
	s.Run("missing wallet address", func() {
		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			nil, testutil.PhotoPtr("alice")))
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing photo", func() {
		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": "0xc1"}, nil))
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("non-image upload", func() {
		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": "0xc1"}, testutil.TextFile("hello")))
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("oversized photo", func() {
		big := &face.Photo{Data: bytes.Repeat([]byte{0xff}, 4096), MimeType: "image/jpeg"}
		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/enroll",
			map[string]string{"walletAddress": "0xc1"}, big))
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("not multipart", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/face/enroll", bytes.NewBufferString(`{"walletAddress":"0xc1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := s.serve(req)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})
}

func (s *EnrollmentHandlerSuite) TestRecognize() {
	resolvedAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	s.Run("recognized", func() {
		s.service.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(&models.Recognition{
			Claim: &face.IdentityClaim{
				Recognized:         true,
				ClaimedIdentityKey: "0xc1",
				Confidence:         92,
				TemplateRef:        "tpl-1",
				ResolvedAt:         resolvedAt,
			},
			Enrolled: true,
		}, nil)

		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/recognize", nil, testutil.PhotoPtr("alice")))
		s.Equal(http.StatusOK, w.Code)
		var res models.RecognizeResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.True(res.Recognized)
		s.Equal("0xc1", res.WalletAddress)
		s.Equal(92.0, res.Confidence)
		s.True(res.IsEnrolled)
	})

	s.Run("not recognized is still 200", func() {
		s.service.EXPECT().Recognize(gomock.Any(), gomock.Any()).Return(&models.Recognition{
			Claim: &face.IdentityClaim{ResolvedAt: resolvedAt},
		}, nil)

		w := s.serve(testutil.MultipartRequest(s.T(), http.MethodPost, "/api/face/recognize", nil, testutil.PhotoPtr("stranger")))
		s.Equal(http.StatusOK, w.Code)
		var res models.RecognizeResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.False(res.Recognized)
		s.Empty(res.WalletAddress)
	})
}

func (s *EnrollmentHandlerSuite) TestCheckEnrollment() {
	s.Run("enrolled", func() {
		s.service.EXPECT().IsEnrolled(gomock.Any(), "0xC1").Return(true, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/face/check-enrollment", bytes.NewBufferString(`{"walletAddress":"0xC1"}`))
		w := s.serve(req)
		s.Equal(http.StatusOK, w.Code)
		var res models.CheckEnrollmentResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.True(res.IsEnrolled)
		s.Equal("0xc1", res.WalletAddress)
	})

	s.Run("blank wallet returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/face/check-enrollment", bytes.NewBufferString(`{"walletAddress":"  "}`))
		w := s.serve(req)
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})
}

func (s *EnrollmentHandlerSuite) TestListEnrolled() {
	s.Run("empty list is an array", func() {
		s.service.EXPECT().ListEnrolled(gomock.Any()).Return(nil, nil)

		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/face/enrolled", nil))
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"count":0,"wallets":[],"message":"0 wallet(s) enrolled"}`, w.Body.String())
	})

	s.Run("store failure returns 500", func() {
		s.service.EXPECT().ListEnrolled(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list enrollments"))

		w := s.serve(httptest.NewRequest(http.MethodGet, "/api/face/enrolled", nil))
		s.assertStatusAndError(w, http.StatusInternalServerError, "internal_error")
	})
}

func (s *EnrollmentHandlerSuite) TestClear() {
	s.service.EXPECT().ClearAll(gomock.Any()).Return(nil)

	w := s.serve(httptest.NewRequest(http.MethodDelete, "/api/face/clear", nil))
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"cleared":true,"message":"All enrollments cleared"}`, w.Body.String())
}
