package entity

import (
	"fmt"

	"github.com/shopspring/decimal"

	coinbase "ledger_reporter/internal/entity"
)

// AccountKindWallet is the account kind Coinbase assigns to crypto wallets;
// fiat accounts carry the kind "fiat".
const AccountKindWallet = "wallet"

// Account is an immutable snapshot of a Coinbase account at fetch time.
type Account struct {
	ResourcePath     string          `json:"resourcePath"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	CurrencyCode     string          `json:"currencyCode"`
	CurrencyExponent int32           `json:"currencyExponent"`
	Balance          decimal.Decimal `json:"balance"`
}

// NewAccount builds an Account snapshot from a raw API record.
func NewAccount(data coinbase.AccountData) (*Account, error) {
	balance, err := decimal.NewFromString(data.Balance.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q for account %s: %w", data.Balance.Amount, data.Name, err)
	}

	return &Account{
		ResourcePath:     data.ResourcePath,
		Name:             data.Name,
		Kind:             data.Type,
		CurrencyCode:     data.Currency.Code,
		CurrencyExponent: data.Currency.Exponent,
		Balance:          balance,
	}, nil
}
