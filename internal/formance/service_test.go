package formance

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

func TestUCAsset(t *testing.T) {
	if ucAsset != "UC/8" {
		t.Errorf("ucAsset = %q, want UC/8", ucAsset)
	}
}

func TestAccountAddressRoundTrip(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"alice", "ucic:alice"},
		{ledger.TreasuryAddress, "ucic:__TREASURY__"},
		{"0xAbC-1", "ucic:enc:3078416243" + "2d31"},
		{"bob.eth", "ucic:enc:626f622e657468"},
	}
	for _, tt := range tests {
		got := accountAddress(tt.address)
		if got != tt.want {
			t.Errorf("accountAddress(%q) = %q, want %q", tt.address, got, tt.want)
		}
		back, ok := ucAddress(got)
		if !ok || back != tt.address {
			t.Errorf("ucAddress(%q) = %q, %v; want %q", got, back, ok, tt.address)
		}
	}
}

func TestUCAddressRejectsForeignAccounts(t *testing.T) {
	for _, account := range []string{journalAccount, "world", "users:1", "ucic:enc:zz", "ucic:a:b"} {
		if got, ok := ucAddress(account); ok {
			t.Errorf("ucAddress(%q) = %q, expected rejection", account, got)
		}
	}
}

func TestScriptFor(t *testing.T) {
	if scriptFor(ledger.MintAddress) != numscriptIssue {
		t.Error("expected mint postings to allow overdraft")
	}
	if scriptFor(ledger.TreasuryAddress) != numscriptPosting {
		t.Error("expected treasury postings to use the bounded template")
	}
}

func TestBigIntToDecimal(t *testing.T) {
	// 100_000_000 smallest units = 1 UC
	result := bigIntToDecimal(big.NewInt(100_000_000))
	if !result.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", result.String())
	}

	result = bigIntToDecimal(big.NewInt(-250_000_000))
	if !result.Equal(decimal.RequireFromString("-2.5")) {
		t.Errorf("expected -2.5, got %s", result.String())
	}

	// nil should return zero
	result = bigIntToDecimal(nil)
	if !result.IsZero() {
		t.Errorf("expected 0, got %s", result.String())
	}
}

func TestVolumeBalance(t *testing.T) {
	vols := map[string]shared.V2Volume{
		ucAsset: {Input: big.NewInt(500), Output: big.NewInt(200)},
		"USD/2": {Balance: big.NewInt(7)},
	}
	if got := volumeBalance(vols, ucAsset); got == nil || got.Int64() != 300 {
		t.Errorf("volumeBalance UC = %v, want 300", got)
	}
	if got := volumeBalance(vols, "USD/2"); got == nil || got.Int64() != 7 {
		t.Errorf("volumeBalance USD = %v, want 7", got)
	}
	if got := volumeBalance(vols, "EUR/2"); got != nil {
		t.Errorf("volumeBalance EUR = %v, want nil", got)
	}
}

func TestTransactionPosting(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	addr := accountAddress("alice")
	tx := shared.V2Transaction{
		ID:        big.NewInt(9),
		Reference: strPtr("ref-9"),
		Timestamp: ts,
		Metadata:  map[string]string{"kind": "transfer", "seq": "4", "operation_seq": "7"},
		Postings: []shared.V2Posting{
			{Source: accountAddress(ledger.TreasuryAddress), Destination: addr, Asset: ucAsset, Amount: big.NewInt(150_000_000)},
		},
		PostCommitVolumes: map[string]map[string]shared.V2Volume{
			addr: {ucAsset: {Input: big.NewInt(400_000_000), Output: big.NewInt(0)}},
		},
	}

	p := transactionPosting(tx, addr, "alice")
	if p.Ref != "ref-9" || p.Seq != 4 || p.OperationSeq != 7 || p.Kind != "transfer" {
		t.Errorf("unexpected identity fields: %+v", p)
	}
	if p.Counterparty != ledger.TreasuryAddress {
		t.Errorf("counterparty = %q, want treasury", p.Counterparty)
	}
	if !p.Amount.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("amount = %s, want 1.5", p.Amount.String())
	}
	if !p.BalanceAfter.Equal(decimal.NewFromInt(4)) || !p.BalanceBefore.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("balances = %s -> %s, want 2.5 -> 4", p.BalanceBefore.String(), p.BalanceAfter.String())
	}
}

func TestParseOperations(t *testing.T) {
	meta := map[string]string{"application": "ucic-governance"}
	for seq := uint64(1); seq <= 12; seq++ {
		raw, err := json.Marshal(models.OperationRecord{Seq: seq, Kind: "transfer", Outcome: models.OutcomeApplied})
		if err != nil {
			t.Fatal(err)
		}
		meta[opMetaKey(seq)] = string(raw)
	}

	all, err := parseOperations(meta, 100, 0)
	if err != nil {
		t.Fatalf("parseOperations: %v", err)
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 records, got %d", len(all))
	}
	// Zero padding keeps 10..12 after 9.
	for i, r := range all {
		if r.Seq != uint64(i+1) {
			t.Fatalf("record %d has seq %d", i, r.Seq)
		}
	}

	page, err := parseOperations(meta, 2, 10)
	if err != nil {
		t.Fatalf("parseOperations page: %v", err)
	}
	if len(page) != 2 || page[0].Seq != 11 || page[1].Seq != 12 {
		t.Errorf("unexpected page: %+v", page)
	}

	if rest, _ := parseOperations(meta, 5, 50); rest != nil {
		t.Errorf("expected nil past the end, got %+v", rest)
	}
}

func TestLastOperationSeq(t *testing.T) {
	meta := map[string]string{"application": "ucic-governance"}
	if seq, err := lastOperationSeq(meta); err != nil || seq != 0 {
		t.Fatalf("empty journal: seq=%d err=%v, want 0", seq, err)
	}

	for _, seq := range []uint64{3, 12, 9} {
		meta[opMetaKey(seq)] = "{}"
	}
	seq, err := lastOperationSeq(meta)
	if err != nil {
		t.Fatalf("lastOperationSeq: %v", err)
	}
	if seq != 12 {
		t.Errorf("seq = %d, want 12", seq)
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isNotFoundError(nil) {
		t.Error("nil should not be a not-found error")
	}
}
