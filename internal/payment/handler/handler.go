package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"facepay/internal/face"
	"facepay/internal/ledger"
	"facepay/internal/payment/models"
	"facepay/internal/platform/privacy"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/httputil"
	"facepay/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service Readiness Explorer

// Service is the payment orchestrator as seen by HTTP.
type Service interface {
	ProcessPayment(ctx context.Context, intent *models.Intent) (*models.Outcome, error)
	GetTransaction(ctx context.Context, hash string) (*ledger.TransactionRecord, error)
	ListOutcomes(ctx context.Context, state models.State, limit int) ([]*models.Outcome, error)
}

// Readiness is the pre-flight check run before a payment is attempted.
type Readiness interface {
	RequirePayments() error
}

// Explorer builds public links to ledger transactions.
type Explorer interface {
	ExplorerURL(hash string) string
}

// Handler serves the /api/payment endpoints.
type Handler struct {
	service       Service
	readiness     Readiness
	explorer      Explorer
	logger        *slog.Logger
	maxPhotoBytes int64
}

// New creates a payment Handler.
func New(service Service, readiness Readiness, explorer Explorer, logger *slog.Logger, maxPhotoBytes int64) *Handler {
	return &Handler{
		service:       service,
		readiness:     readiness,
		explorer:      explorer,
		logger:        logger,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// Register registers the public payment routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/payment/face-pay", h.HandleFacePay)
	r.Get("/api/payment/tx/{hash}", h.HandleGetTransaction)
}

// RegisterAdmin registers the reconciliation routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/payment/partial", h.HandleListPartial)
}

// HandleFacePay authorizes a payment with the payer's face and executes it.
// Once an intent is accepted the response always carries the outcome, with
// the HTTP status derived from the terminal state.
func (h *Handler) HandleFacePay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.readiness.RequirePayments(); err != nil {
		h.logger.ErrorContext(ctx, "payment refused: ledger not ready",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.ParseMultipart(r, h.maxPhotoBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid upload",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	upload, err := httputil.ReadImage(r, "photo", h.maxPhotoBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid photo",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	req := &models.FacePayRequest{
		MerchantAddress: r.FormValue("merchantAddress"),
		Amount:          r.FormValue("amount"),
		FromPrivateKey:  r.FormValue("fromPrivateKey"),
	}
	if err := httputil.PrepareRequest(req); err != nil {
		h.logger.WarnContext(ctx, "invalid payment request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	amount, _ := req.ParsedAmount()

	outcome, err := h.service.ProcessPayment(ctx, &models.Intent{
		RequestID:  requestID,
		Credential: ledger.NewCredential(req.FromPrivateKey),
		Payee:      req.MerchantAddress,
		Amount:     amount,
		Photo:      face.Photo{Data: upload.Data, MimeType: upload.MimeType},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "payment refused",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	var explorerURL string
	switch {
	case outcome.TransferReceipt != nil:
		explorerURL = h.explorer.ExplorerURL(outcome.TransferReceipt.TxID)
	case outcome.PendingTxID != "":
		explorerURL = h.explorer.ExplorerURL(outcome.PendingTxID)
	}
	httputil.WriteJSON(w, StatusForOutcome(outcome), models.FromOutcome(outcome, explorerURL))
}

// StatusForOutcome maps a terminal outcome to its HTTP status. PARTIAL is
// reported as 200 since the payment itself went through.
func StatusForOutcome(o *models.Outcome) int {
	switch o.State {
	case models.StateCompleted, models.StatePartial:
		return http.StatusOK
	case models.StateTransferFailed:
		return http.StatusBadGateway
	case models.StateRejected:
		switch o.Reason {
		case models.ReasonNotRecognized:
			return http.StatusNotFound
		case models.ReasonIdentityMismatch:
			return http.StatusForbidden
		case models.ReasonUpstream:
			return http.StatusBadGateway
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash := chi.URLParam(r, "hash")

	tx, err := h.service.GetTransaction(ctx, hash)
	if err != nil {
		h.logger.WarnContext(ctx, "transaction lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"tx", privacy.ShortAddress(hash),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.TransactionResponse{
		Transaction: tx,
		ExplorerURL: h.explorer.ExplorerURL(tx.Hash),
	})
}

// HandleListPartial lists outcomes awaiting reward reconciliation, newest
// first. ?limit bounds the result.
func (h *Handler) HandleListPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	outcomes, err := h.service.ListOutcomes(ctx, models.StatePartial, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list partial payments",
			"request_id", requestcontext.RequestID(ctx),
			"admin", requestcontext.AdminSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []*models.Outcome{}
	}

	httputil.WriteJSON(w, http.StatusOK, &models.PartialListResponse{
		Count:    len(outcomes),
		Outcomes: outcomes,
	})
}
