package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tie-break windows for merging adjacent transactions into one
// meta-transaction. A fill following a rebate (or another fill) must land
// within a minute of it; a rebate trailing a fill may lag up to an hour.
const (
	rebateFillMergeWindow = time.Minute
	fillRebateMergeWindow = time.Hour
)

// typePair is the ordered (previous, candidate) transaction type pair used to
// look up the applicable merge rule.
type typePair struct {
	prev string
	next string
}

// mergeRules is the transition table deciding whether a candidate transaction
// joins the open group. Pairs without an entry never merge.
var mergeRules = map[typePair]func(m *MetaTransaction, tx *Transaction, delta time.Duration) bool{
	{TypeSubscriptionRebate, TypeSubscriptionRebate}: func(m *MetaTransaction, tx *Transaction, delta time.Duration) bool {
		return true
	},
	{TypeSubscriptionRebate, TypeAdvancedTradeFill}: func(m *MetaTransaction, tx *Transaction, delta time.Duration) bool {
		return delta < rebateFillMergeWindow && m.matchesTradeOperation(tx)
	},
	{TypeAdvancedTradeFill, TypeAdvancedTradeFill}: func(m *MetaTransaction, tx *Transaction, delta time.Duration) bool {
		return delta < rebateFillMergeWindow && m.matchesTradeOperation(tx)
	},
	{TypeAdvancedTradeFill, TypeSubscriptionRebate}: func(m *MetaTransaction, tx *Transaction, delta time.Duration) bool {
		return delta < fillRebateMergeWindow
	},
}

// MetaTransaction is a group of chronologically adjacent transactions of one
// account that represent a single logical economic event, e.g. a trade fill
// plus its fee rebate. Members are kept in the order they were added.
type MetaTransaction struct {
	Transactions []*Transaction `json:"transactions"`
}

// NewMetaTransaction returns an empty open group.
func NewMetaTransaction() *MetaTransaction {
	return &MetaTransaction{}
}

// Add appends a transaction to the group unconditionally. Callers gate
// membership through ShouldAdd.
func (m *MetaTransaction) Add(tx *Transaction) {
	m.Transactions = append(m.Transactions, tx)
}

// Amount is the sum of the member transactions' signed amounts.
func (m *MetaTransaction) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range m.Transactions {
		total = total.Add(tx.Amount())
	}
	return total
}

// Timestamp is the leading (first added, i.e. newest) member's timestamp.
func (m *MetaTransaction) Timestamp() time.Time {
	if len(m.Transactions) == 0 {
		return time.Time{}
	}
	return m.Transactions[0].Timestamp
}

// Account returns the owning account shared by all members.
func (m *MetaTransaction) Account() *Account {
	if len(m.Transactions) == 0 {
		return nil
	}
	return m.Transactions[0].Account
}

// ShouldAdd decides whether the candidate belongs to this group. An empty
// group accepts anything. Otherwise the candidate must share the group's
// account, and the ordered pair (type of the most recently added member,
// candidate type) must pass the transition table with the elapsed whole
// seconds between the two.
func (m *MetaTransaction) ShouldAdd(tx *Transaction) bool {
	if len(m.Transactions) == 0 {
		return true
	}

	last := m.Transactions[len(m.Transactions)-1]
	if last.Account.ResourcePath != tx.Account.ResourcePath {
		return false
	}

	delta := last.Timestamp.Sub(tx.Timestamp)
	if delta < 0 {
		delta = -delta
	}
	delta = delta.Truncate(time.Second)

	rule, ok := mergeRules[typePair{prev: last.Type(), next: tx.Type()}]
	if !ok {
		return false
	}
	return rule(m, tx, delta)
}

// matchesTradeOperation reports whether the candidate's trade-operation key
// matches some fill already in the group. It is vacuously true while the
// group holds no fills.
func (m *MetaTransaction) matchesTradeOperation(tx *Transaction) bool {
	matched := false
	seenFill := false
	for _, member := range m.Transactions {
		if member.Type() != TypeAdvancedTradeFill {
			continue
		}
		seenFill = true
		if member.TradeOperation().Matches(tx.TradeOperation()) {
			matched = true
		}
	}
	return !seenFill || matched
}
