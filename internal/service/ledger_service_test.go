package service

import (
	"context"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledger_reporter/internal/client"
	"ledger_reporter/internal/config"
	"ledger_reporter/internal/domain/entity"
	coinbase "ledger_reporter/internal/entity"
	"ledger_reporter/internal/port"
)

// stubClient serves canned pages per path and applies the early-stop
// predicate the way the real client does.
type stubClient struct {
	mu      sync.Mutex
	pages   map[string][]jsoniter.RawMessage
	fetched []string
}

func (s *stubClient) Fetch(_ context.Context, path string, _ bool, keepWhile client.KeepWhile) ([]jsoniter.RawMessage, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, path)
	s.mu.Unlock()

	results := []jsoniter.RawMessage{}
	for _, record := range s.pages[path] {
		if keepWhile != nil && !keepWhile(record) {
			break
		}
		results = append(results, record)
	}
	return results, nil
}

func raw(records ...string) []jsoniter.RawMessage {
	out := make([]jsoniter.RawMessage, 0, len(records))
	for _, r := range records {
		out = append(out, jsoniter.RawMessage(r))
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Fetch:  config.FetchConfig{MaxConcurrentRequests: 4},
		Report: config.ReportConfig{Currencies: []string{"USD", "USDC"}},
	}
}

func newTestService(pages map[string][]jsoniter.RawMessage) (port.LedgerService, *stubClient) {
	stub := &stubClient{pages: pages}
	return NewLedgerService(stub, testConfig(), zap.NewNop()), stub
}

func testPages() map[string][]jsoniter.RawMessage {
	return map[string][]jsoniter.RawMessage{
		"/v2/accounts": raw(
			`{"id":"cash","name":"Cash (USD)","type":"fiat","resource_path":"/v2/accounts/cash","currency":{"code":"USD","exponent":2},"balance":{"amount":"100.00","currency":"USD"}}`,
			`{"id":"usdc","name":"USDC Wallet","type":"wallet","resource_path":"/v2/accounts/usdc","currency":{"code":"USDC","exponent":2},"balance":{"amount":"50.00","currency":"USDC"}}`,
			`{"id":"btc","name":"BTC Wallet","type":"wallet","resource_path":"/v2/accounts/btc","currency":{"code":"BTC","exponent":8},"balance":{"amount":"0.5","currency":"BTC"}}`,
		),
		"/v2/accounts/cash/transactions": raw(
			`{"id":"fill-1","resource":"transaction","type":"advanced_trade_fill","created_at":"2024-01-10T12:30:00Z","amount":{"amount":"10.123456","currency":"USD"},"advanced_trade_fill":{"order_side":"BUY","product_id":"BTC-USD","fill_price":"50000.00","commission":"0.023456"}}`,
			`{"id":"rebate-1","resource":"transaction","type":"subscription_rebate","created_at":"2024-01-10T12:00:00Z","amount":{"amount":"0.50","currency":"USD"},"description":"Coinbase One fee rebate"}`,
			`{"id":"buy-1","resource":"transaction","type":"buy","created_at":"2024-01-09T10:00:00Z","amount":{"amount":"20.00","currency":"USD"},"buy":{"payment_method_name":"Checking account"}}`,
			`{"id":"old-1","resource":"transaction","type":"buy","created_at":"2023-12-01T10:00:00Z","amount":{"amount":"500.00","currency":"USD"}}`,
		),
		"/v2/accounts/cash/deposits": raw(
			`{"id":"dep-1","resource":"deposit","created_at":"2024-01-08T09:00:00Z","amount":{"amount":"100.00","currency":"USD"}}`,
		),
		"/v2/accounts/usdc/transactions": raw(
			`{"id":"int-1","resource":"transaction","type":"interest","created_at":"2024-01-10T13:00:00Z","amount":{"amount":"1.00","currency":"USDC"}}`,
		),
	}
}

func since(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestBuildLedger(t *testing.T) {
	svc, _ := newTestService(testPages())

	report, err := svc.BuildLedger(context.Background(), since(t))
	require.NoError(t, err)

	assertDecimal(t, "150.00", report.Total)
	require.Len(t, report.Rows, 3)

	// Newest first across accounts: the USDC interest, then the Cash fill
	// merged with its rebate, then the standalone buy.
	interest := report.Rows[0]
	assert.Equal(t, "USDC Wallet", interest.AccountName)
	require.Len(t, interest.Lines, 1)
	assert.Equal(t, "Interest received", interest.Lines[0].Description)
	assertDecimal(t, "1.00", interest.Amount)
	assertDecimal(t, "50.00", interest.AccountBalance)
	assertDecimal(t, "150.00", interest.TotalBalance)

	trade := report.Rows[1]
	assert.Equal(t, "Cash (USD)", trade.AccountName)
	require.Len(t, trade.Lines, 2)
	assert.Equal(t, "Buy BTC-USD @ 50000.00", trade.Lines[0].Description)
	assert.Equal(t, "Coinbase One fee rebate", trade.Lines[1].Description)
	assertDecimal(t, "10.60", trade.Amount)
	assertDecimal(t, "100.00", trade.AccountBalance)
	assertDecimal(t, "149.00", trade.TotalBalance)

	buy := report.Rows[2]
	assert.Equal(t, "Cash (USD)", buy.AccountName)
	require.Len(t, buy.Lines, 1)
	assert.Equal(t, "Bought USD with Checking account", buy.Lines[0].Description)
	assertDecimal(t, "20.00", buy.Amount)
	assertDecimal(t, "89.40", buy.AccountBalance)
	assertDecimal(t, "138.40", buy.TotalBalance)
}

func TestBuildLedgerSkipsNonReportableAccounts(t *testing.T) {
	svc, stub := newTestService(testPages())

	_, err := svc.BuildLedger(context.Background(), since(t))
	require.NoError(t, err)

	for _, path := range stub.fetched {
		assert.NotContains(t, path, "/v2/accounts/btc/")
	}
	assert.Contains(t, stub.fetched, "/v2/accounts/cash/transactions")
	assert.Contains(t, stub.fetched, "/v2/accounts/cash/deposits")
	assert.Contains(t, stub.fetched, "/v2/accounts/cash/withdrawals")
	assert.Contains(t, stub.fetched, "/v2/accounts/usdc/transactions")
}

func TestBuildLedgerHonorsSinceBound(t *testing.T) {
	svc, _ := newTestService(testPages())

	report, err := svc.BuildLedger(context.Background(), since(t))
	require.NoError(t, err)

	for _, row := range report.Rows {
		for _, line := range row.Lines {
			assert.True(t, line.Timestamp.After(since(t)), "line %s predates the bound", line.Timestamp)
		}
	}
}

func TestBuildLedgerDropsDepositAndWithdrawalDuplicates(t *testing.T) {
	svc, _ := newTestService(testPages())

	report, err := svc.BuildLedger(context.Background(), since(t))
	require.NoError(t, err)

	for _, row := range report.Rows {
		for _, line := range row.Lines {
			assert.NotEqual(t, entity.TypeDeposit, line.Type)
			assert.NotEqual(t, entity.TypeWithdrawal, line.Type)
		}
	}
}

func TestBuildLedgerFailsOnUnknownType(t *testing.T) {
	pages := testPages()
	pages["/v2/accounts/usdc/transactions"] = raw(
		`{"id":"odd-1","resource":"transaction","type":"mystery_type","created_at":"2024-01-10T13:00:00Z","amount":{"amount":"1.00","currency":"USDC"}}`,
	)
	svc, _ := newTestService(pages)

	_, err := svc.BuildLedger(context.Background(), since(t))
	require.Error(t, err)

	var unknownErr *entity.UnknownTransactionTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "mystery_type", unknownErr.Type)
}

func TestListAccounts(t *testing.T) {
	svc, _ := newTestService(testPages())

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)

	require.Len(t, accounts, 3)
	assert.Equal(t, "Cash (USD)", accounts[0].Name)
	assertDecimal(t, "100.00", accounts[0].Balance)
	assert.Equal(t, "BTC", accounts[2].CurrencyCode)
}

func TestGroupTransactionsCoversEveryTransaction(t *testing.T) {
	account := &entity.Account{
		ResourcePath:     "/v2/accounts/cash",
		Name:             "Cash (USD)",
		Kind:             "fiat",
		CurrencyCode:     "USD",
		CurrencyExponent: 2,
		Balance:          decimal.RequireFromString("100.00"),
	}

	records := testPages()["/v2/accounts/cash/transactions"]
	txs := make([]*entity.Transaction, 0, len(records))
	for _, record := range records {
		var data coinbase.TransactionData
		require.NoError(t, json.Unmarshal(record, &data))
		tx, err := entity.NewTransaction(data, account)
		require.NoError(t, err)
		txs = append(txs, tx)
	}

	groups := groupTransactions(txs)

	total := 0
	for _, group := range groups {
		total += len(group.Transactions)
	}
	assert.Equal(t, len(txs), total)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Transactions, 2)
}
