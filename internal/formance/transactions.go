package formance

import (
	"context"
	"fmt"
	"strconv"

	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via set_tx_meta()
// so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

// numscriptIssue draws from the mint sentinel, which is the only account allowed to go
// negative.
const numscriptIssue = `vars {
  asset $asset
  number $amount
  account $source
  account $destination
  string $ledger_ref
  string $kind
  string $seq
  string $operation_seq
  string $operation_kind
}

send [$asset $amount] (
  source = $source allowing unbounded overdraft
  destination = $destination
)

set_tx_meta("ledger_ref", $ledger_ref)
set_tx_meta("kind", $kind)
set_tx_meta("seq", $seq)
set_tx_meta("operation_seq", $operation_seq)
set_tx_meta("operation_kind", $operation_kind)
`

const numscriptPosting = `vars {
  asset $asset
  number $amount
  account $source
  account $destination
  string $ledger_ref
  string $kind
  string $seq
  string $operation_seq
  string $operation_kind
}

send [$asset $amount] (
  source = $source
  destination = $destination
)

set_tx_meta("ledger_ref", $ledger_ref)
set_tx_meta("kind", $kind)
set_tx_meta("seq", $seq)
set_tx_meta("operation_seq", $operation_seq)
set_tx_meta("operation_kind", $operation_kind)
`

// scriptFor picks the template for a posting.
func scriptFor(source string) string {
	if source == ledger.MintAddress {
		return numscriptIssue
	}
	return numscriptPosting
}

// ---------------------------------------------------------------------------
// Posting operations
// ---------------------------------------------------------------------------

// RecordPosting mirrors one ledger transaction. The ledger ref is the Formance
// reference, so replaying a posting is a no-op.
func (s *Service) RecordPosting(ctx context.Context, params store.PostingParams) error {
	if params.Ref == "" {
		return fmt.Errorf("posting reference cannot be empty")
	}
	if params.Amount == 0 {
		return fmt.Errorf("posting %s has zero amount", params.Ref)
	}

	operationKind := ""
	if oc, ok := models.GetOperationContext(ctx); ok {
		operationKind = oc.Kind
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(params.Ref),
		Script: &shared.V2PostTransactionScript{
			Plain: scriptFor(params.Source),
			Vars: map[string]string{
				"asset":          ucAsset,
				"amount":         strconv.FormatUint(params.Amount, 10),
				"source":         accountAddress(params.Source),
				"destination":    accountAddress(params.Destination),
				"ledger_ref":     params.Ref,
				"kind":           params.Kind,
				"seq":            strconv.FormatUint(params.Seq, 10),
				"operation_seq":  strconv.FormatUint(params.OperationSeq, 10),
				"operation_kind": operationKind,
			},
		},
	}
	if !params.Timestamp.IsZero() {
		postTx.Timestamp = &params.Timestamp
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Posting already mirrored", zap.String("ref", params.Ref))
			return nil // idempotent
		}
		return fmt.Errorf("error recording posting %s: %w", params.Ref, err)
	}

	zap.L().Info("Posting recorded in Formance",
		zap.String("ref", params.Ref),
		zap.String("kind", params.Kind),
		zap.String("source", params.Source),
		zap.String("destination", params.Destination),
		zap.String("amount", models.UnitsToUC(params.Amount).String()))
	return nil
}

// GetPostings returns the account's side of each transaction touching it, newest first.
func (s *Service) GetPostings(ctx context.Context, account string, limit, offset int) ([]models.Posting, error) {
	addr := accountAddress(account)
	pageSize := int64(limit + offset) // fetch enough to skip offset

	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		Expand:   v3.Pointer("volumes"),
		RequestBody: map[string]any{
			"$or": []any{
				map[string]any{"$match": map[string]any{"source": addr}},
				map[string]any{"$match": map[string]any{"destination": addr}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var result []models.Posting
	skipped := 0
	for _, tx := range resp.V2TransactionsCursorResponse.Cursor.Data {
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, transactionPosting(tx, addr, account))
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// transactionPosting projects a Formance transaction onto one account.
func transactionPosting(tx shared.V2Transaction, addr, account string) models.Posting {
	p := models.Posting{
		Id:        fmt.Sprintf("%d", tx.ID),
		Kind:      tx.Metadata["kind"],
		Account:   account,
		Amount:    decimal.Zero,
		CreatedAt: tx.Timestamp,
	}
	if tx.Reference != nil {
		p.Ref = *tx.Reference
	}
	p.Seq, _ = strconv.ParseUint(tx.Metadata["seq"], 10, 64)
	p.OperationSeq, _ = strconv.ParseUint(tx.Metadata["operation_seq"], 10, 64)

	for _, posting := range tx.Postings {
		if posting.Asset != ucAsset {
			continue
		}
		amt := bigIntToDecimal(posting.Amount)
		switch addr {
		case posting.Source:
			p.Amount = p.Amount.Sub(amt)
			p.Counterparty, _ = ucAddress(posting.Destination)
		case posting.Destination:
			p.Amount = p.Amount.Add(amt)
			p.Counterparty, _ = ucAddress(posting.Source)
		}
	}

	if vols, ok := tx.PostCommitVolumes[addr]; ok {
		if bal := volumeBalance(vols, ucAsset); bal != nil {
			p.BalanceAfter = bigIntToDecimal(bal)
			p.BalanceBefore = p.BalanceAfter.Sub(p.Amount)
		}
	}
	return p
}
