package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"facepay/internal/ledger"
	"facepay/internal/platform/privacy"
	"facepay/internal/status"
	"facepay/internal/wallet/models"
	"facepay/pkg/platform/httputil"
	"facepay/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the wallet operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context) (*models.CreatedWallet, error)
	Balance(ctx context.Context, address string) (*ledger.Balance, error)
	Faucet(ctx context.Context, address string, amount *float64) (*models.Funding, error)
	Mint(ctx context.Context, address string, amount float64) (*models.Mint, error)
	Status() status.Snapshot
}

// Handler serves the /api/wallet endpoints.
type Handler struct {
	service     Service
	explorerURL func(hash string) string
	logger      *slog.Logger
}

// New creates a wallet Handler. explorerURL may be nil.
func New(service Service, explorerURL func(hash string) string, logger *slog.Logger) *Handler {
	if explorerURL == nil {
		explorerURL = func(string) string { return "" }
	}
	return &Handler{service: service, explorerURL: explorerURL, logger: logger}
}

// Register registers the public wallet routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/wallet/create", h.HandleCreate)
	r.Post("/api/wallet/balance", h.HandleBalance)
	r.Post("/api/wallet/faucet", h.HandleFaucet)
	r.Get("/api/wallet/status", h.HandleStatus)
}

// RegisterAdmin registers routes that must sit behind admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/wallet/mint", h.HandleMint)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallet, err := h.service.Create(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create wallet",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &models.CreateWalletResponse{
		Address:    wallet.Address,
		PrivateKey: wallet.PrivateKey.Reveal(),
		PublicKey:  wallet.PublicKey,
		Message:    "Wallet created; store the private key, it is not kept",
	})
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	balance, err := h.service.Balance(ctx, req.Address)
	if err != nil {
		h.logger.WarnContext(ctx, "balance lookup failed",
			"request_id", requestID,
			"address", privacy.ShortAddress(req.Address),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.BalanceResponse{Balance: balance, Message: "Balance retrieved"})
}

func (h *Handler) HandleFaucet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	funding, err := h.service.Faucet(ctx, req.Address, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "faucet request failed",
			"request_id", requestID,
			"address", privacy.ShortAddress(req.Address),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.FaucetResponse{Funding: funding, Message: "Test tokens funded"})
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AmountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	}

	mint, err := h.service.Mint(ctx, req.Address, amount)
	if err != nil {
		h.logger.WarnContext(ctx, "reward mint failed",
			"request_id", requestID,
			"admin", requestcontext.AdminSubject(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin reward mint",
		"request_id", requestID,
		"admin", requestcontext.AdminSubject(ctx),
		"tx", mint.Result.Hash,
	)

	httputil.WriteJSON(w, http.StatusOK, &models.MintResponse{
		Mint:        mint,
		ExplorerURL: h.explorerURL(mint.Result.Hash),
		Message:     "Reward tokens minted",
	})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &models.StatusResponse{
		Snapshot: h.service.Status(),
		Message:  "Service status retrieved",
	})
}
