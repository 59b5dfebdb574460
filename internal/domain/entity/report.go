package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerLine is one member transaction of a report row.
type LedgerLine struct {
	Timestamp   time.Time       `json:"timestamp"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// LedgerRow is one meta-transaction rendered for the report, together with
// the account and total running balances as of this row. Rows run newest to
// oldest, so the balances are the ones in effect right after the row's
// transactions settled.
type LedgerRow struct {
	Timestamp      time.Time       `json:"timestamp"`
	AccountName    string          `json:"accountName"`
	Amount         decimal.Decimal `json:"amount"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	Lines          []LedgerLine    `json:"lines"`
}

// LedgerReport is the assembled activity ledger across all reported accounts.
type LedgerReport struct {
	Since       time.Time       `json:"since"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Accounts    []*Account      `json:"accounts"`
	Rows        []LedgerRow     `json:"rows"`
	Total       decimal.Decimal `json:"total"`
}
