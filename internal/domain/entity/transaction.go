package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	coinbase "ledger_reporter/internal/entity"
)

// Transaction type identifiers as they appear in the API. Records fetched via
// the deposits and withdrawals sub-resources carry their resource kind as the
// type; everything else arrives under the generic "transaction" resource and
// is distinguished by its sub-type.
const (
	TypeAdvancedTradeFill     = "advanced_trade_fill"
	TypeSubscriptionRebate    = "subscription_rebate"
	TypeInterest              = "interest"
	TypeSend                  = "send"
	TypeBuy                   = "buy"
	TypeSell                  = "sell"
	TypeTrade                 = "trade"
	TypeFiatDeposit           = "fiat_deposit"
	TypeFiatWithdrawal        = "fiat_withdrawal"
	TypeDeposit               = "deposit"
	TypeWithdrawal            = "withdrawal"
	TypeStakingReward         = "staking_reward"
	TypeDerivativesSettlement = "derivatives_settlement"

	resourceTransaction = "transaction"
)

// Transaction is a typed view over one raw transaction record. It references
// its owning account but does not own it.
type Transaction struct {
	Account   *Account                 `json:"-"`
	Data      coinbase.TransactionData `json:"data"`
	Timestamp time.Time                `json:"timestamp"`

	amount decimal.Decimal
}

// TradeOperation identifies which trade a fill belongs to. It is nil for
// non-fill transactions and a nil operation never matches anything.
type TradeOperation struct {
	Side      string `json:"side"`
	ProductID string `json:"productId"`
}

// Matches reports whether two trade operations refer to the same trade.
func (op *TradeOperation) Matches(other *TradeOperation) bool {
	if op == nil || other == nil {
		return false
	}
	return op.Side == other.Side && op.ProductID == other.ProductID
}

// NewTransaction builds a Transaction from a raw API record. The signed
// amount is derived here: for advanced trade fills the commission is
// subtracted before rounding, and rounding happens exactly once, to the
// account's currency exponent.
func NewTransaction(data coinbase.TransactionData, account *Account) (*Transaction, error) {
	timestamp, err := time.Parse(time.RFC3339, data.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q for transaction %s: %w", data.CreatedAt, data.ID, err)
	}

	amount, err := decimal.NewFromString(data.Amount.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q for transaction %s: %w", data.Amount.Amount, data.ID, err)
	}

	tx := &Transaction{
		Account:   account,
		Data:      data,
		Timestamp: timestamp,
	}

	if tx.Type() == TypeAdvancedTradeFill && data.AdvancedTradeFill != nil {
		commission, err := decimal.NewFromString(data.AdvancedTradeFill.Commission)
		if err != nil {
			return nil, fmt.Errorf("failed to parse commission %q for transaction %s: %w", data.AdvancedTradeFill.Commission, data.ID, err)
		}
		amount = amount.Sub(commission)
	}
	tx.amount = amount.Round(account.CurrencyExponent)

	return tx, nil
}

// Type returns the record's sub-type for generic transaction records and the
// broad resource kind otherwise, so deposits and withdrawals fetched via
// their own sub-resources stay distinguishable.
func (t *Transaction) Type() string {
	if t.Data.Resource == resourceTransaction {
		return t.Data.Type
	}
	return t.Data.Resource
}

// Amount is the signed amount net of commission, rounded to the account's
// currency exponent.
func (t *Transaction) Amount() decimal.Decimal {
	return t.amount
}

// AccountName returns the display name of the owning account.
func (t *Transaction) AccountName() string {
	return t.Account.Name
}

// TradeOperation returns the (side, product) key of an advanced trade fill,
// or nil for any other transaction type.
func (t *Transaction) TradeOperation() *TradeOperation {
	if t.Type() != TypeAdvancedTradeFill || t.Data.AdvancedTradeFill == nil {
		return nil
	}
	return &TradeOperation{
		Side:      t.Data.AdvancedTradeFill.OrderSide,
		ProductID: t.Data.AdvancedTradeFill.ProductID,
	}
}

// descriptionFuncs is the closed set of human descriptions per transaction
// type. A type without an entry surfaces as UnknownTransactionTypeError so
// unrecognized API record shapes fail loudly instead of mis-rendering.
var descriptionFuncs = map[string]func(t *Transaction) string{
	TypeSubscriptionRebate: func(t *Transaction) string {
		if t.Data.Description != "" {
			return t.Data.Description
		}
		return "Unknown subscription rebate"
	},
	TypeInterest: func(t *Transaction) string {
		return "Interest received"
	},
	TypeAdvancedTradeFill: func(t *Transaction) string {
		fill := t.Data.AdvancedTradeFill
		if fill == nil {
			return "Advanced trade fill"
		}
		return capitalize(fmt.Sprintf("%s %s @ %s", fill.OrderSide, fill.ProductID, fill.FillPrice))
	},
	TypeSend: func(t *Transaction) string {
		operation := "Received from"
		if t.amount.IsNegative() {
			operation = "Sent to"
		}
		address := "an address"
		if t.Data.To != nil && t.Data.To.Address != "" {
			address = t.Data.To.Address
		}
		network := "an unknown network"
		if t.Data.Network != nil && t.Data.Network.NetworkName != "" {
			network = t.Data.Network.NetworkName
		}
		return fmt.Sprintf("%s %s on %s", operation, address, network)
	},
	TypeBuy: func(t *Transaction) string {
		method := "payment method"
		if t.Data.Buy != nil && t.Data.Buy.PaymentMethodName != "" {
			method = t.Data.Buy.PaymentMethodName
		}
		return fmt.Sprintf("Bought %s with %s", t.Data.Amount.Currency, method)
	},
	TypeSell: func(t *Transaction) string {
		if t.Account.Kind == AccountKindWallet {
			return fmt.Sprintf("Sold %s for USD", t.Data.Amount.Currency)
		}
		method := "payment method"
		if t.Data.Sell != nil && t.Data.Sell.PaymentMethodName != "" {
			method = t.Data.Sell.PaymentMethodName
		}
		return fmt.Sprintf("Sold from %s", method)
	},
	TypeTrade: func(t *Transaction) string {
		return "Trade"
	},
	TypeFiatWithdrawal: func(t *Transaction) string {
		return "Withdrew to bank"
	},
	TypeFiatDeposit: func(t *Transaction) string {
		return "Deposited from bank"
	},
	TypeDerivativesSettlement: func(t *Transaction) string {
		return "Derivatives settlement"
	},
	TypeDeposit: func(t *Transaction) string {
		return fmt.Sprintf("Deposited to %s", t.Account.Name)
	},
	TypeWithdrawal: func(t *Transaction) string {
		return fmt.Sprintf("Withdrew from %s", t.Account.Name)
	},
	TypeStakingReward: func(t *Transaction) string {
		return "Staking reward"
	},
}

// Description resolves the human-readable description for this transaction.
// Types outside the registered set return UnknownTransactionTypeError.
func (t *Transaction) Description() (string, error) {
	fn, ok := descriptionFuncs[t.Type()]
	if !ok {
		return "", &UnknownTransactionTypeError{Type: t.Type()}
	}
	return fn(t), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
