package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coinbase "ledger_reporter/internal/entity"
)

func testAccount(name, kind, code string, exponent int32, balance string) *Account {
	return &Account{
		ResourcePath:     "/v2/accounts/" + name,
		Name:             name,
		Kind:             kind,
		CurrencyCode:     code,
		CurrencyExponent: exponent,
		Balance:          decimal.RequireFromString(balance),
	}
}

func genericTxData(id, txType, createdAt, amount string) coinbase.TransactionData {
	return coinbase.TransactionData{
		ID:        id,
		Resource:  "transaction",
		Type:      txType,
		CreatedAt: createdAt,
		Amount:    coinbase.MoneyData{Amount: amount, Currency: "USD"},
	}
}

func fillTxData(id, createdAt, amount, commission, side, product string) coinbase.TransactionData {
	data := genericTxData(id, TypeAdvancedTradeFill, createdAt, amount)
	data.AdvancedTradeFill = &coinbase.AdvancedTradeFillData{
		OrderSide:  side,
		ProductID:  product,
		FillPrice:  "50000.00",
		Commission: commission,
	}
	return data
}

func TestNewTransactionNetsCommissionBeforeRounding(t *testing.T) {
	account := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")

	tx, err := NewTransaction(fillTxData("t1", "2024-01-10T12:00:00Z", "10.123456", "0.023456", "BUY", "BTC-USD"), account)
	require.NoError(t, err)

	// Subtract first, round once: 10.123456 - 0.023456 = 10.10 exactly.
	// Rounding each operand first would give 10.12 - 0.02 = 10.10 too, but
	// 10.126 - 0.006 distinguishes the orders; both cases are covered.
	assert.True(t, tx.Amount().Equal(decimal.RequireFromString("10.10")), "got %s", tx.Amount())

	tx, err = NewTransaction(fillTxData("t2", "2024-01-10T12:00:00Z", "10.126", "0.006", "BUY", "BTC-USD"), account)
	require.NoError(t, err)
	assert.True(t, tx.Amount().Equal(decimal.RequireFromString("10.12")), "got %s", tx.Amount())
}

func TestNewTransactionRoundsToCurrencyExponent(t *testing.T) {
	account := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")

	tx, err := NewTransaction(genericTxData("t1", TypeBuy, "2024-01-10T12:00:00Z", "1.005"), account)
	require.NoError(t, err)
	assert.True(t, tx.Amount().Equal(decimal.RequireFromString("1.01")), "got %s", tx.Amount())
}

func TestTransactionTypeDerivation(t *testing.T) {
	account := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")

	tx, err := NewTransaction(genericTxData("t1", TypeBuy, "2024-01-10T12:00:00Z", "5.00"), account)
	require.NoError(t, err)
	assert.Equal(t, TypeBuy, tx.Type())

	depositData := genericTxData("t2", "", "2024-01-10T12:00:00Z", "5.00")
	depositData.Resource = "deposit"
	tx, err = NewTransaction(depositData, account)
	require.NoError(t, err)
	assert.Equal(t, TypeDeposit, tx.Type())
}

func TestTradeOperation(t *testing.T) {
	account := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")

	fill, err := NewTransaction(fillTxData("t1", "2024-01-10T12:00:00Z", "1.00", "0", "BUY", "BTC-USD"), account)
	require.NoError(t, err)
	rebate, err := NewTransaction(genericTxData("t2", TypeSubscriptionRebate, "2024-01-10T12:00:00Z", "0.50"), account)
	require.NoError(t, err)

	require.NotNil(t, fill.TradeOperation())
	assert.Equal(t, "BUY", fill.TradeOperation().Side)
	assert.Equal(t, "BTC-USD", fill.TradeOperation().ProductID)

	// Non-fills have no trade operation and nil never matches, not even nil.
	assert.Nil(t, rebate.TradeOperation())
	assert.False(t, rebate.TradeOperation().Matches(fill.TradeOperation()))
	assert.False(t, fill.TradeOperation().Matches(nil))
}

func TestUnknownTypeFailsOnDescriptionNotConstruction(t *testing.T) {
	account := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")

	tx, err := NewTransaction(genericTxData("t1", "mystery_type", "2024-01-10T12:00:00Z", "1.00"), account)
	require.NoError(t, err)

	_, err = tx.Description()
	require.Error(t, err)

	var unknownErr *UnknownTransactionTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "mystery_type", unknownErr.Type)
}

func TestDescriptions(t *testing.T) {
	fiat := testAccount("Cash (USD)", "fiat", "USD", 2, "100.00")
	wallet := testAccount("USDC Wallet", AccountKindWallet, "USDC", 2, "50.00")

	fill, err := NewTransaction(fillTxData("t1", "2024-01-10T12:00:00Z", "1.00", "0", "buy", "BTC-USD"), fiat)
	require.NoError(t, err)
	desc, err := fill.Description()
	require.NoError(t, err)
	assert.Equal(t, "Buy BTC-USD @ 50000.00", desc)

	send := genericTxData("t2", TypeSend, "2024-01-10T12:00:00Z", "-3.00")
	send.To = &coinbase.ToData{Address: "0xabc"}
	send.Network = &coinbase.NetworkData{NetworkName: "base"}
	tx, err := NewTransaction(send, wallet)
	require.NoError(t, err)
	desc, err = tx.Description()
	require.NoError(t, err)
	assert.Equal(t, "Sent to 0xabc on base", desc)

	rebate := genericTxData("t3", TypeSubscriptionRebate, "2024-01-10T12:00:00Z", "0.50")
	tx, err = NewTransaction(rebate, fiat)
	require.NoError(t, err)
	desc, err = tx.Description()
	require.NoError(t, err)
	assert.Equal(t, "Unknown subscription rebate", desc)

	sellFromWallet, err := NewTransaction(genericTxData("t4", TypeSell, "2024-01-10T12:00:00Z", "-2.00"), wallet)
	require.NoError(t, err)
	desc, err = sellFromWallet.Description()
	require.NoError(t, err)
	assert.Equal(t, "Sold USD for USD", desc)
}
