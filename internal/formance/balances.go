package formance

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetAccountBalance returns the mirrored UC balance of a single account.
func (s *Service) GetAccountBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	zap.L().Debug("Getting account balance from Formance", zap.String("account", account))

	vols, err := s.getAccountVolumes(ctx, accountAddress(account))
	if err != nil {
		return decimal.Zero, err
	}
	if bal := volumeBalance(vols, ucAsset); bal != nil {
		return bigIntToDecimal(bal), nil
	}
	return decimal.Zero, nil
}

// GetAccountBalances lists every mirrored UC account, including sentinels.
func (s *Service) GetAccountBalances(ctx context.Context) ([]models.AccountBalance, error) {
	var balances []models.AccountBalance
	var cursor *string
	for {
		resp, err := s.client.Ledger.V2.ListAccounts(ctx, operations.V2ListAccountsRequest{
			Ledger:   s.ledger,
			PageSize: ptrInt64(100),
			Cursor:   cursor,
			Expand:   v3.Pointer("volumes"),
			RequestBody: map[string]any{
				"$match": map[string]any{
					"address": accountPrefix + ":",
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}

		page := resp.V2AccountsCursorResponse.Cursor
		for i := range page.Data {
			acct := &page.Data[i]
			address, ok := ucAddress(acct.Address)
			if !ok {
				continue
			}
			bal := volumeBalance(acct.Volumes, ucAsset)
			if bal == nil {
				continue
			}
			b := models.AccountBalance{
				Id:      acct.Address,
				Account: address,
				Balance: bigIntToDecimal(bal),
			}
			if acct.UpdatedAt != nil {
				b.UpdatedAt = *acct.UpdatedAt
			}
			balances = append(balances, b)
		}

		if !page.HasMore || page.Next == nil {
			break
		}
		cursor = page.Next
	}

	sort.Slice(balances, func(i, j int) bool { return balances[i].Account < balances[j].Account })
	return balances, nil
}

// ReconcileAccount checks the reported balance against input minus output volumes and
// that only the mint sentinel is overdrawn.
func (s *Service) ReconcileAccount(ctx context.Context, account string) error {
	zap.L().Info("Reconciling account", zap.String("account", account))

	vols, err := s.getAccountVolumes(ctx, accountAddress(account))
	if err != nil {
		return err
	}
	vol, ok := vols[ucAsset]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, account)
	}

	calculated := new(big.Int)
	if vol.Input != nil {
		calculated.Add(calculated, vol.Input)
	}
	if vol.Output != nil {
		calculated.Sub(calculated, vol.Output)
	}
	if vol.Balance != nil && vol.Balance.Cmp(calculated) != 0 {
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s",
			bigIntToDecimal(vol.Balance).String(), bigIntToDecimal(calculated).String())
	}
	if calculated.Sign() < 0 && account != ledger.MintAddress {
		return fmt.Errorf("account %s is overdrawn: %s", account, bigIntToDecimal(calculated).String())
	}

	zap.L().Info("Account reconciliation successful",
		zap.String("account", account),
		zap.String("balance", bigIntToDecimal(calculated).String()))
	return nil
}

// ---------- helpers ----------

// getAccountVolumes fetches volumes for a single account. A missing account has no volumes.
func (s *Service) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest units to a UC decimal.
func bigIntToDecimal(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(ledger.Decimals))
}
