package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"facepay/internal/ledger"
	"facepay/internal/status"
	"facepay/internal/wallet/handler/mocks"
	"facepay/internal/wallet/models"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/testutil"
)

type WalletHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestWalletHandlerSuite(t *testing.T) {
	suite.Run(t, new(WalletHandlerSuite))
}

func (s *WalletHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, func(hash string) string { return "https://explorer/txn/" + hash },
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

func (s *WalletHandlerSuite) post(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)))
	return w
}

func (s *WalletHandlerSuite) TestCreate() {
	acc := testutil.Account(s.T(), testutil.PayerKey)
	s.service.EXPECT().Create(gomock.Any()).Return(&models.CreatedWallet{
		Address:    acc.Address,
		PrivateKey: acc.ExportPrivateKey(),
		PublicKey:  acc.PublicKeyHex(),
	}, nil)

	w := s.post("/api/wallet/create", "")

	s.Equal(http.StatusCreated, w.Code)
	var res models.CreateWalletResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal(acc.Address, res.Address)
	s.Equal(testutil.PayerKey, res.PrivateKey)
}

func (s *WalletHandlerSuite) TestBalance() {
	s.Run("ok", func() {
		s.service.EXPECT().Balance(gomock.Any(), "0xc1").
			Return(&ledger.Balance{Address: "0xc1", Native: 5, Reward: 1}, nil)
		w := s.post("/api/wallet/balance", `{"address":" 0xc1 "}`)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"address":"0xc1"`)
	})

	s.Run("malformed address", func() {
		w := s.post("/api/wallet/balance", `{"address":"alice"}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("malformed body", func() {
		w := s.post("/api/wallet/balance", `{`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *WalletHandlerSuite) TestFaucet() {
	s.Run("without amount", func() {
		s.service.EXPECT().Faucet(gomock.Any(), "0xc1", (*float64)(nil)).
			Return(&models.Funding{Address: "0xc1", Amount: ledger.UnitsPerCoin, TxHashes: []string{"0xf1"}}, nil)
		w := s.post("/api/wallet/faucet", `{"address":"0xc1"}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("no faucet on network", func() {
		s.service.EXPECT().Faucet(gomock.Any(), "0xc1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnavailable, `no faucet for network "mainnet"`))
		w := s.post("/api/wallet/faucet", `{"address":"0xc1","amount":2}`)
		s.Equal(http.StatusServiceUnavailable, w.Code)
	})
}

func (s *WalletHandlerSuite) TestMint() {
	s.Run("ok", func() {
		s.service.EXPECT().Mint(gomock.Any(), "0xc1", 1.5).Return(&models.Mint{
			Address: "0xc1",
			Amount:  150_000_000,
			Result:  &ledger.TxResult{Hash: "0xm1", Success: true},
		}, nil)
		w := s.post("/api/wallet/mint", `{"address":"0xc1","amount":1.5}`)
		s.Equal(http.StatusOK, w.Code)
		var res models.MintResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
		s.Equal("https://explorer/txn/0xm1", res.ExplorerURL)
	})

	s.Run("ledger failure", func() {
		s.service.EXPECT().Mint(gomock.Any(), "0xc1", 1.0).
			Return(nil, dErrors.New(dErrors.CodeLedger, "mint failed"))
		w := s.post("/api/wallet/mint", `{"address":"0xc1","amount":1}`)
		s.Equal(http.StatusBadGateway, w.Code)
	})
}

func (s *WalletHandlerSuite) TestStatus() {
	s.service.EXPECT().Status().Return(status.Snapshot{Network: "devnet", LedgerClientReady: true})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wallet/status", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"ledgerClientReady":true`)
	s.Contains(w.Body.String(), `"network":"devnet"`)
}
