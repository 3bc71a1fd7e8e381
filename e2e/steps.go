package e2e

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cucumber/godog"

	"facepay/e2e/steps/common"
	ledgermemory "facepay/internal/ledger/memory"
)

// pngHeader makes fixture photos pass the image content check.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// photo returns deterministic image bytes for a named face.
func photo(name string) formFile {
	data := append(append([]byte{}, pngHeader...), name...)
	return formFile{Field: "photo", Filename: name, ContentType: "image/png", Data: data}
}

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)

	ctx.Step(`^the payment service is running$`, tc.paymentServiceIsRunning)
	ctx.Step(`^a wallet "([^"]*)"$`, tc.createWallet)
	ctx.Step(`^a wallet "([^"]*)" funded with ([\d.]+) coins$`, tc.createFundedWallet)
	ctx.Step(`^"([^"]*)" has enrolled the face "([^"]*)"$`, tc.enrollFace)
	ctx.Step(`^"([^"]*)" enrolls the face "([^"]*)" again$`, tc.enrollFaceAgain)
	ctx.Step(`^the reward contract is unavailable$`, tc.rewardContractUnavailable)

	ctx.Step(`^"([^"]*)" pays "([^"]*)" ([^ ]+) coins showing the face "([^"]*)"$`, tc.pay)
	ctx.Step(`^"([^"]*)" pays "([^"]*)" ([^ ]+) coins showing the face "([^"]*)" with request ID "([^"]*)"$`, tc.payWithRequestID)
	ctx.Step(`^I look up the transfer transaction$`, tc.lookUpTransfer)
	ctx.Step(`^an operator lists partial payments$`, tc.listPartial)

	ctx.Step(`^the wallet "([^"]*)" should hold ([\d.]+) coins$`, tc.walletShouldHold)
	ctx.Step(`^the wallet "([^"]*)" should hold ([\d.]+) reward tokens$`, tc.walletShouldHoldRewards)
	ctx.Step(`^no transfer should have been submitted$`, tc.noTransferSubmitted)
	ctx.Step(`^the partial list should contain the last request$`, tc.partialListContainsLastRequest)
}

func (tc *TestContext) paymentServiceIsRunning(ctx context.Context) error {
	if err := tc.GET("/health/ready", nil); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("service not ready: %s", tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) createWallet(ctx context.Context, name string) error {
	if err := tc.POST("/api/wallet/create", map[string]any{}, nil); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 201 {
		return fmt.Errorf("create wallet: status %d: %s", tc.GetLastResponseStatus(), tc.LastResponseBody)
	}
	var res struct {
		Address    string `json:"address"`
		PrivateKey string `json:"private_key"`
	}
	if err := tc.decode(&res); err != nil {
		return err
	}
	tc.wallets[name] = wallet{Address: res.Address, PrivateKey: res.PrivateKey}
	return nil
}

func (tc *TestContext) createFundedWallet(ctx context.Context, name string, coins float64) error {
	if err := tc.createWallet(ctx, name); err != nil {
		return err
	}
	if err := tc.POST("/api/wallet/faucet", map[string]any{
		"address": tc.wallets[name].Address,
		"amount":  coins,
	}, nil); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("faucet: status %d: %s", tc.GetLastResponseStatus(), tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) walletAddress(name string) (string, error) {
	w, ok := tc.wallets[name]
	if !ok {
		return "", fmt.Errorf("unknown wallet %q", name)
	}
	return w.Address, nil
}

func (tc *TestContext) submitEnrollment(name, face string) error {
	address, err := tc.walletAddress(name)
	if err != nil {
		return err
	}
	return tc.POSTMultipart("/api/face/enroll",
		map[string]string{"walletAddress": address},
		[]formFile{photo(face)},
		nil,
	)
}

func (tc *TestContext) enrollFace(ctx context.Context, name, face string) error {
	if err := tc.submitEnrollment(name, face); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 201 {
		return fmt.Errorf("enroll: status %d: %s", tc.GetLastResponseStatus(), tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) enrollFaceAgain(ctx context.Context, name, face string) error {
	return tc.submitEnrollment(name, face)
}

func (tc *TestContext) rewardContractUnavailable(ctx context.Context) error {
	tc.app.ledger.FailNext(ledgermemory.OpMintReward, errors.New("reward module not published"))
	return nil
}

func (tc *TestContext) pay(ctx context.Context, payer, payee, amount, face string) error {
	return tc.payWithRequestID(ctx, payer, payee, amount, face, "")
}

func (tc *TestContext) payWithRequestID(ctx context.Context, payer, payee, amount, face, requestID string) error {
	from, ok := tc.wallets[payer]
	if !ok {
		return fmt.Errorf("unknown wallet %q", payer)
	}
	to, err := tc.walletAddress(payee)
	if err != nil {
		return err
	}
	headers := map[string]string{"User-Agent": "Mozilla/5.0 (Linux; Android 14) Chrome/126.0 Mobile"}
	if requestID != "" {
		headers["X-Request-ID"] = requestID
	}
	return tc.POSTMultipart("/api/payment/face-pay",
		map[string]string{
			"merchantAddress": to,
			"amount":          amount,
			"fromPrivateKey":  from.PrivateKey,
		},
		[]formFile{photo(face)},
		headers,
	)
}

func (tc *TestContext) lookUpTransfer(ctx context.Context) error {
	var res struct {
		TransferReceipt *struct {
			TxID string `json:"tx_id"`
		} `json:"transfer_receipt"`
	}
	if err := tc.decode(&res); err != nil {
		return err
	}
	if res.TransferReceipt == nil {
		return fmt.Errorf("last response has no transfer receipt: %s", tc.LastResponseBody)
	}
	return tc.GET("/api/payment/tx/"+res.TransferReceipt.TxID, nil)
}

func (tc *TestContext) listPartial(ctx context.Context) error {
	token, err := tc.app.adminToken()
	if err != nil {
		return err
	}
	return tc.GET("/api/payment/partial", map[string]string{"Authorization": "Bearer " + token})
}

func (tc *TestContext) balance(name string) (native, reward float64, err error) {
	address, err := tc.walletAddress(name)
	if err != nil {
		return 0, 0, err
	}
	// Keep the payment response around for later steps.
	lastResponse, lastBody, lastID := tc.LastResponse, tc.LastResponseBody, tc.LastRequestID
	defer func() { tc.LastResponse, tc.LastResponseBody, tc.LastRequestID = lastResponse, lastBody, lastID }()

	if err := tc.POST("/api/wallet/balance", map[string]any{"address": address}, nil); err != nil {
		return 0, 0, err
	}
	var res struct {
		Native float64 `json:"native"`
		Reward float64 `json:"reward"`
	}
	if err := tc.decode(&res); err != nil {
		return 0, 0, err
	}
	return res.Native, res.Reward, nil
}

func (tc *TestContext) walletShouldHold(ctx context.Context, name string, coins float64) error {
	native, _, err := tc.balance(name)
	if err != nil {
		return err
	}
	if !sameAmount(native, coins) {
		return fmt.Errorf("wallet %s: expected %v coins, got %v", name, coins, native)
	}
	return nil
}

func (tc *TestContext) walletShouldHoldRewards(ctx context.Context, name string, tokens float64) error {
	_, reward, err := tc.balance(name)
	if err != nil {
		return err
	}
	if !sameAmount(reward, tokens) {
		return fmt.Errorf("wallet %s: expected %v reward tokens, got %v", name, tokens, reward)
	}
	return nil
}

func (tc *TestContext) noTransferSubmitted(ctx context.Context) error {
	if n := tc.app.ledger.Calls(ledgermemory.OpTransfer); n != 0 {
		return fmt.Errorf("expected no transfer, got %d", n)
	}
	return nil
}

func (tc *TestContext) partialListContainsLastRequest(ctx context.Context) error {
	outcomes := tc.app.journal.All()
	if len(outcomes) == 0 {
		return errors.New("no outcome was journaled")
	}
	last := outcomes[len(outcomes)-1].RequestID

	var res struct {
		Count    int `json:"count"`
		Outcomes []struct {
			RequestID string `json:"request_id"`
			State     string `json:"state"`
		} `json:"outcomes"`
	}
	if err := tc.decode(&res); err != nil {
		return err
	}
	for _, o := range res.Outcomes {
		if o.RequestID == last && o.State == "PARTIAL" {
			return nil
		}
	}
	return fmt.Errorf("request %s not listed among %d partial outcomes", last, res.Count)
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 1e-8
}
