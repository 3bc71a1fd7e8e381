// Package aptos implements the ledger contract over the Aptos node REST API.
package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"facepay/internal/ledger"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/circuit"
	"facepay/pkg/platform/tracer"
	"facepay/pkg/platform/upstream"
)

const (
	serviceName       = "aptos"
	faucetServiceName = "aptos-faucet"

	transferFunction = "0x1::aptos_account::transfer"
	rewardModule     = "facewise_pay"
	rewardFunction   = "mint_rewards"
	rewardTokenName  = "FWSE"

	nativeCoinType  = "0x1::aptos_coin::AptosCoin"
	nativeCoinStore = "0x1::coin::CoinStore<" + nativeCoinType + ">"
)

// Config configures the Aptos client.
type Config struct {
	Network         string
	NodeURL         string // including the /v1 prefix
	FaucetURL       string
	ExplorerURL     string
	AdminCredential ledger.Credential
	PackageAddress  string
	Timeout         time.Duration

	MaxGasAmount     uint64
	ExpirationWindow time.Duration
	PollInterval     time.Duration
	// ConfirmTimeout bounds the wait for commit after the node accepted a
	// transaction. The wait ignores caller cancellation.
	ConfirmTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxGasAmount == 0 {
		c.MaxGasAmount = 10_000
	}
	if c.ExpirationWindow <= 0 {
		c.ExpirationWindow = 10 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 60 * time.Second
	}
	if c.ExplorerURL == "" {
		c.ExplorerURL = "https://explorer.aptoslabs.com"
	}
	c.NodeURL = strings.TrimRight(c.NodeURL, "/")
	c.FaucetURL = strings.TrimRight(c.FaucetURL, "/")
	c.PackageAddress = strings.TrimSpace(c.PackageAddress)
}

// Client talks to one Aptos fullnode (and optionally its faucet).
type Client struct {
	cfg    Config
	node   *upstream.Caller
	faucet *upstream.Caller
	admin  *ledger.Account
	tracer tracer.Tracer
	logger *slog.Logger
	now    func() time.Time
}

type options struct {
	httpClient upstream.HTTPDoer
	observer   upstream.Observer
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*options)

func WithHTTPClient(c upstream.HTTPDoer) Option {
	return func(o *options) { o.httpClient = c }
}

func WithObserver(obs upstream.Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(o *options) { o.breaker = b }
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the clock used for transaction expiration.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a Client. An admin credential that cannot be parsed is logged
// and treated as unconfigured so payments still work without rewards.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()
	o := options{logger: slog.Default(), tracer: tracer.NewNoop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		cfg:    cfg,
		tracer: o.tracer,
		logger: o.logger,
		now:    o.now,
		node: upstream.NewCaller(serviceName, o.httpClient, cfg.Timeout,
			upstream.WithBreaker(o.breaker),
			upstream.WithObserver(o.observer),
			upstream.WithLogger(o.logger),
		),
		faucet: upstream.NewCaller(faucetServiceName, o.httpClient, cfg.Timeout,
			upstream.WithObserver(o.observer),
			upstream.WithLogger(o.logger),
		),
	}
	if !cfg.AdminCredential.IsZero() {
		admin, err := ledger.AccountFromCredential(cfg.AdminCredential)
		if err != nil {
			o.logger.Warn("admin credential unusable, reward minting disabled", "error", err)
		} else {
			c.admin = admin
		}
	}
	return c
}

// DeriveAddress returns the account address controlled by cred.
func (c *Client) DeriveAddress(cred ledger.Credential) (string, error) {
	acc, err := ledger.AccountFromCredential(cred)
	if err != nil {
		return "", err
	}
	return acc.Address, nil
}

// Status reports the client configuration.
func (c *Client) Status() ledger.Status {
	return ledger.Status{
		Network:                   c.cfg.Network,
		RewardContractConfigured:  c.cfg.PackageAddress != "",
		AdminCredentialConfigured: c.admin != nil,
		ClientReady:               c.cfg.NodeURL != "",
	}
}

// Health checks that the fullnode answers.
func (c *Client) Health(ctx context.Context) error {
	base := strings.TrimSuffix(c.cfg.NodeURL, "/v1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/-/healthy", nil)
	if err != nil {
		return err
	}
	_, err = c.node.Do(ctx, "health", req)
	return err
}

// ExplorerURL links a transaction hash in the public explorer.
func (c *Client) ExplorerURL(hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("%s/txn/%s?network=%s", strings.TrimRight(c.cfg.ExplorerURL, "/"), hash, c.cfg.Network)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.NodeURL+path, nil)
	if err != nil {
		return upstream.New(upstream.Internal, serviceName, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, c.node, op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return upstream.New(upstream.Internal, serviceName, "failed to marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.NodeURL+path, bytes.NewReader(body))
	if err != nil {
		return upstream.New(upstream.Internal, serviceName, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, c.node, op, req, out)
}

func (c *Client) do(ctx context.Context, caller *upstream.Caller, op string, req *http.Request, out any) error {
	resp, err := caller.Do(ctx, op, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return upstream.New(upstream.BadData, caller.Service(), "failed to parse response", err)
	}
	return nil
}

// ledgerError maps an upstream failure to a ledger error. Errors that are
// already domain errors pass through.
func ledgerError(err error, message string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return upstream.AsDomain(err, dErrors.CodeLedger, message)
}

var (
	_ ledger.Ledger         = (*Client)(nil)
	_ ledger.Wallets        = (*Client)(nil)
	_ ledger.StatusReporter = (*Client)(nil)
)
