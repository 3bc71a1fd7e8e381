package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"facepay/internal/enrollment/models"
	"facepay/internal/face"
	"facepay/internal/platform/privacy"
	"facepay/pkg/platform/httputil"
	"facepay/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the enrollment operations exposed over HTTP.
type Service interface {
	Enroll(ctx context.Context, identityKey string, photo face.Photo) (*models.EnrolledIdentity, error)
	IsEnrolled(ctx context.Context, identityKey string) (bool, error)
	ListEnrolled(ctx context.Context) ([]string, error)
	ClearAll(ctx context.Context) error
	Recognize(ctx context.Context, photo face.Photo) (*models.Recognition, error)
}

// Handler serves the /api/face endpoints.
type Handler struct {
	service       Service
	logger        *slog.Logger
	maxPhotoBytes int64
}

// New creates an enrollment Handler. Uploads larger than maxPhotoBytes are rejected.
func New(service Service, logger *slog.Logger, maxPhotoBytes int64) *Handler {
	return &Handler{
		service:       service,
		logger:        logger,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// Register registers the public enrollment routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/face/enroll", h.HandleEnroll)
	r.Post("/api/face/recognize", h.HandleRecognize)
	r.Post("/api/face/check-enrollment", h.HandleCheckEnrollment)
	r.Get("/api/face/enrolled", h.HandleListEnrolled)
}

// RegisterAdmin registers routes that must sit behind admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/api/face/clear", h.HandleClear)
}

func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	photo, ok := h.readPhoto(w, r)
	if !ok {
		return
	}
	req := &models.EnrollRequest{WalletAddress: r.FormValue("walletAddress")}
	if err := httputil.PrepareRequest(req); err != nil {
		h.logger.WarnContext(ctx, "invalid enroll request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.Enroll(ctx, req.WalletAddress, photo)
	if err != nil {
		h.logger.WarnContext(ctx, "enrollment failed",
			"request_id", requestID,
			"wallet", privacy.ShortAddress(req.WalletAddress),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &models.EnrollResponse{
		WalletAddress: identity.IdentityKey,
		TemplateRef:   identity.TemplateRef,
		EnrolledAt:    identity.EnrolledAt,
		IsEnrolled:    true,
		Message:       "Face enrolled",
	})
}

func (h *Handler) HandleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	photo, ok := h.readPhoto(w, r)
	if !ok {
		return
	}

	result, err := h.service.Recognize(ctx, photo)
	if err != nil {
		h.logger.WarnContext(ctx, "recognition failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res := &models.RecognizeResponse{
		Recognized:   result.Claim.Recognized,
		RecognizedAt: result.Claim.ResolvedAt,
		Message:      "Face not recognized",
	}
	if result.Claim.Recognized {
		res.WalletAddress = result.Claim.ClaimedIdentityKey
		res.Confidence = result.Claim.Confidence
		res.TemplateRef = result.Claim.TemplateRef
		res.IsEnrolled = result.Enrolled
		res.Message = "Face recognized"
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleCheckEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CheckEnrollmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	enrolled, err := h.service.IsEnrolled(ctx, req.WalletAddress)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check enrollment",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	message := "Wallet is not enrolled"
	if enrolled {
		message = "Wallet is enrolled"
	}
	httputil.WriteJSON(w, http.StatusOK, &models.CheckEnrollmentResponse{
		WalletAddress: models.NormalizeKey(req.WalletAddress),
		IsEnrolled:    enrolled,
		Message:       message,
	})
}

func (h *Handler) HandleListEnrolled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	keys, err := h.service.ListEnrolled(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list enrollments",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}

	httputil.WriteJSON(w, http.StatusOK, &models.EnrolledListResponse{
		Count:   len(keys),
		Wallets: keys,
		Message: fmt.Sprintf("%d wallet(s) enrolled", len(keys)),
	})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.ClearAll(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear enrollments",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.ClearResponse{
		Cleared: true,
		Message: "All enrollments cleared",
	})
}

func (h *Handler) readPhoto(w http.ResponseWriter, r *http.Request) (face.Photo, bool) {
	ctx := r.Context()
	if err := httputil.ParseMultipart(r, h.maxPhotoBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid upload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return face.Photo{}, false
	}
	upload, err := httputil.ReadImage(r, "photo", h.maxPhotoBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid photo",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return face.Photo{}, false
	}
	return face.Photo{Data: upload.Data, MimeType: upload.MimeType}, true
}
