package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"facepay/internal/ledger"
	"facepay/internal/payment/models"
)

// Postgres stores outcomes in the payment_outcomes table. Recording is
// idempotent on request_id.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Record(ctx context.Context, o *models.Outcome) error {
	id, err := uuid.Parse(o.ID)
	if err != nil {
		id = uuid.New()
	}
	query := `
		INSERT INTO payment_outcomes (
			id, request_id, state, failure_reason, message, detail,
			payer_address, payee_address, amount_octas, confidence,
			transfer_tx, reward_tx, pending_tx, terminal, client_ip_prefix, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (request_id) DO NOTHING
	`
	_, err = p.db.ExecContext(ctx, query,
		id,
		o.RequestID,
		string(o.State),
		nullString(string(o.Reason)),
		o.Message,
		nullString(o.Detail),
		nullString(o.PayerAddress),
		o.PayeeAddress,
		int64(o.Amount.Units()), // #nosec G115 - amounts are capped well below MaxInt64
		sql.NullFloat64{Float64: o.Confidence, Valid: o.Confidence > 0},
		nullString(receiptTx(o.TransferReceipt)),
		nullString(receiptTx(o.RewardReceipt)),
		nullString(o.PendingTxID),
		nullString(o.Terminal),
		nullString(o.ClientIPPrefix),
		o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record payment outcome: %w", err)
	}
	return nil
}

func (p *Postgres) ListByState(ctx context.Context, state models.State, limit int) ([]*models.Outcome, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, request_id, state, failure_reason, message, detail,
			payer_address, payee_address, amount_octas, confidence,
			transfer_tx, reward_tx, pending_tx, terminal, client_ip_prefix, completed_at
		FROM payment_outcomes
		WHERE state = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	rows, err := p.db.QueryContext(ctx, query, string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("list payment outcomes: %w", err)
	}
	defer rows.Close()

	var out []*models.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment outcomes: %w", err)
	}
	return out, nil
}

func scanOutcome(rows *sql.Rows) (*models.Outcome, error) {
	var (
		o                     models.Outcome
		id                    uuid.UUID
		state                 string
		reason, detail, payer sql.NullString
		transferTx, rewardTx  sql.NullString
		pendingTx             sql.NullString
		terminal, ipPrefix    sql.NullString
		amount                int64
		confidence            sql.NullFloat64
	)
	err := rows.Scan(&id, &o.RequestID, &state, &reason, &o.Message, &detail,
		&payer, &o.PayeeAddress, &amount, &confidence,
		&transferTx, &rewardTx, &pendingTx, &terminal, &ipPrefix, &o.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("scan payment outcome: %w", err)
	}
	o.ID = id.String()
	o.State = models.State(state)
	o.Reason = models.FailureReason(reason.String)
	o.Detail = detail.String
	o.PayerAddress = payer.String
	o.Amount = ledger.Amount(amount) // #nosec G115 - stored from a uint64 amount
	o.Confidence = confidence.Float64
	o.PendingTxID = pendingTx.String
	o.Terminal = terminal.String
	o.ClientIPPrefix = ipPrefix.String
	if transferTx.Valid {
		o.TransferReceipt = &models.Receipt{TxID: transferTx.String, Amount: o.Amount}
	}
	if rewardTx.Valid {
		o.RewardReceipt = &models.Receipt{TxID: rewardTx.String, Amount: o.Amount}
	}
	o.CompletedAt = o.CompletedAt.UTC()
	return &o, nil
}

func receiptTx(r *models.Receipt) string {
	if r == nil {
		return ""
	}
	return r.TxID
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
