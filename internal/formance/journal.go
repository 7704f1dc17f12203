package formance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"go.uber.org/zap"
)

const opMetaPrefix = "op_"

// opMetaKey zero-pads the sequence so keys sort in sequence order.
func opMetaKey(seq uint64) string {
	return fmt.Sprintf("%s%020d", opMetaPrefix, seq)
}

// RecordOperation stores the operation as a JSON metadata entry on the journal account.
func (s *Service) RecordOperation(ctx context.Context, record models.OperationRecord) error {
	meta, err := s.journalMetadata(ctx)
	if err != nil {
		return err
	}
	key := opMetaKey(record.Seq)
	if _, exists := meta[key]; exists {
		return fmt.Errorf("%w: operation %d already recorded", store.ErrDuplicateTransaction, record.Seq)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode operation %d: %w", record.Seq, err)
	}

	_, err = s.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:      s.ledger,
		Address:     journalAccount,
		RequestBody: map[string]string{key: string(raw)},
	})
	if err != nil {
		return fmt.Errorf("failed to record operation %d: %w", record.Seq, err)
	}

	zap.L().Debug("Operation recorded in Formance",
		zap.Uint64("seq", record.Seq),
		zap.String("kind", record.Kind),
		zap.String("outcome", record.Outcome))
	return nil
}

// GetOperations returns journaled operations in sequence order.
func (s *Service) GetOperations(ctx context.Context, limit, offset int) ([]models.OperationRecord, error) {
	meta, err := s.journalMetadata(ctx)
	if err != nil {
		return nil, err
	}
	return parseOperations(meta, limit, offset)
}

// LastOperationSeq returns the highest journaled sequence, 0 for an empty journal.
func (s *Service) LastOperationSeq(ctx context.Context) (uint64, error) {
	meta, err := s.journalMetadata(ctx)
	if err != nil {
		return 0, err
	}
	return lastOperationSeq(meta)
}

// lastOperationSeq parses the greatest op_ key of meta.
func lastOperationSeq(meta map[string]string) (uint64, error) {
	var last string
	for k := range meta {
		if strings.HasPrefix(k, opMetaPrefix) && k > last {
			last = k
		}
	}
	if last == "" {
		return 0, nil
	}
	seq, err := strconv.ParseUint(strings.TrimPrefix(last, opMetaPrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed journal key %s: %w", last, err)
	}
	return seq, nil
}

func (s *Service) journalMetadata(ctx context.Context) (map[string]string, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: journalAccount,
	})
	if err != nil {
		if isNotFoundError(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read journal account: %w", err)
	}
	return resp.V2AccountResponse.Data.Metadata, nil
}

// parseOperations decodes the op_ entries of meta and returns one page of them.
func parseOperations(meta map[string]string, limit, offset int) ([]models.OperationRecord, error) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		if strings.HasPrefix(k, opMetaPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if offset >= len(keys) {
		return nil, nil
	}
	keys = keys[offset:]
	if limit >= 0 && limit < len(keys) {
		keys = keys[:limit]
	}

	records := make([]models.OperationRecord, 0, len(keys))
	for _, k := range keys {
		var r models.OperationRecord
		if err := json.Unmarshal([]byte(meta[k]), &r); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", k, err)
		}
		records = append(records, r)
	}
	return records, nil
}
