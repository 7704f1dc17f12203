package formance

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.JournalStore.
var _ store.JournalStore = (*Service)(nil)

const (
	// accountPrefix namespaces every UC account in the Formance ledger.
	accountPrefix = "ucic"
	// journalAccount carries journaled operations as metadata. It sits outside the
	// account prefix so no UC address can map onto it.
	journalAccount = "ucic_meta:journal"
)

// ucAsset is the UC token in Formance UMN notation.
var ucAsset = fmt.Sprintf("%s/%d", ledger.Symbol, ledger.Decimals)

// Service implements store.JournalStore by mirroring postings into a Formance Stack ledger.
type Service struct {
	client *v3.Formance
	ledger string
}

// NewService creates a Formance-backed JournalStore.
// It connects to the stack, creates the ledger if it doesn't already exist, and returns ready to use.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "ucic-governance"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: cfg.LedgerName}

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance service initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

// ensureLedger creates the ledger if it does not already exist.
func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "ucic-governance",
				"asset":       ucAsset,
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close is a no-op for the Formance backend (HTTP client needs no teardown).
func (s *Service) Close() {}

// ---------- helpers ----------

// accountAddress maps a UC address to a Formance account. Formance segments allow only
// [A-Za-z0-9_]; other addresses are hex-encoded under an extra "enc" segment, which a
// plain address can never produce.
func accountAddress(address string) string {
	if isPlainSegment(address) {
		return accountPrefix + ":" + address
	}
	return accountPrefix + ":enc:" + hex.EncodeToString([]byte(address))
}

// ucAddress reverses accountAddress.
func ucAddress(account string) (string, bool) {
	rest, ok := strings.CutPrefix(account, accountPrefix+":")
	if !ok {
		return "", false
	}
	if encoded, ok := strings.CutPrefix(rest, "enc:"); ok {
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
	if !isPlainSegment(rest) {
		return "", false
	}
	return rest, true
}

func isPlainSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

// isNotFoundError checks whether a Formance SDK error is NOT_FOUND.
func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}

func strPtr(s string) *string { return &s }

func ptrInt64(v int64) *int64 { return &v }
