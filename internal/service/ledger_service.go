package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ledger_reporter/internal/client"
	"ledger_reporter/internal/config"
	"ledger_reporter/internal/domain/entity"
	coinbase "ledger_reporter/internal/entity"
	"ledger_reporter/internal/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const accountsPath = "/v2/accounts"

// accountSubResources are the per-account collections that together hold all
// activity. Deposits and withdrawals live under their own sub-resources and
// share the top-level kind namespace with generic transactions.
var accountSubResources = []string{"transactions", "deposits", "withdrawals"}

// ledgerServiceImpl implements the LedgerService interface.
type ledgerServiceImpl struct {
	client client.CoinbaseClient
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(coinbaseClient client.CoinbaseClient, cfg *config.Config, logger *zap.Logger) port.LedgerService {
	return &ledgerServiceImpl{
		client: coinbaseClient,
		cfg:    cfg,
		logger: logger.Named("LedgerService"),
	}
}

// ListAccounts fetches snapshots of all accounts visible to the credential.
func (s *ledgerServiceImpl) ListAccounts(ctx context.Context) ([]*entity.Account, error) {
	return s.fetchAccounts(ctx)
}

// BuildLedger assembles the unified activity ledger across all reportable
// accounts, covering transactions strictly newer than since.
func (s *ledgerServiceImpl) BuildLedger(ctx context.Context, since time.Time) (*entity.LedgerReport, error) {
	s.logger.Info("Building ledger", zap.Time("since", since))

	accounts, err := s.fetchAccounts(ctx)
	if err != nil {
		return nil, err
	}

	reportable := s.reportableAccounts(accounts)
	if len(reportable) == 0 {
		s.logger.Warn("No accounts match the configured report currencies",
			zap.Strings("currencies", s.cfg.Report.Currencies))
	}

	txsByAccount, err := s.fetchTransactions(ctx, reportable, since)
	if err != nil {
		return nil, err
	}

	// Per-account groups are independent; the report interleaves them back
	// into one global newest-first order by each group's leading timestamp.
	var metas []*entity.MetaTransaction
	for _, account := range reportable {
		txs := txsByAccount[account.ResourcePath]
		if len(txs) == 0 {
			continue
		}
		sort.SliceStable(txs, func(i, j int) bool {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		})
		metas = append(metas, groupTransactions(txs)...)
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].Timestamp().After(metas[j].Timestamp())
	})

	report, err := s.assembleReport(reportable, metas, since)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ledger built",
		zap.Int("accountCount", len(reportable)),
		zap.Int("rowCount", len(report.Rows)))
	return report, nil
}

func (s *ledgerServiceImpl) fetchAccounts(ctx context.Context) ([]*entity.Account, error) {
	records, err := s.client.Fetch(ctx, accountsPath, true, nil)
	if err != nil {
		return nil, err
	}

	accounts := make([]*entity.Account, 0, len(records))
	for _, record := range records {
		var data coinbase.AccountData
		if err := json.Unmarshal(record, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal account record: %w", err)
		}
		account, err := entity.NewAccount(data)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// reportableAccounts filters accounts down to the configured report
// currencies.
func (s *ledgerServiceImpl) reportableAccounts(accounts []*entity.Account) []*entity.Account {
	wanted := make(map[string]struct{}, len(s.cfg.Report.Currencies))
	for _, code := range s.cfg.Report.Currencies {
		wanted[code] = struct{}{}
	}

	var reportable []*entity.Account
	for _, account := range accounts {
		if _, ok := wanted[account.CurrencyCode]; ok {
			reportable = append(reportable, account)
		}
	}
	return reportable
}

// fetchTransactions fans out over account x sub-resource keys. Keys are
// independent, so they run concurrently up to the configured limit; pages
// within one key stay strictly sequential inside the client. Any failure
// aborts the whole report rather than producing an incomplete ledger.
func (s *ledgerServiceImpl) fetchTransactions(ctx context.Context, accounts []*entity.Account, since time.Time) (map[string][]*entity.Transaction, error) {
	sinceBound := since.UTC().Format(time.RFC3339)
	newerThanSince := func(record jsoniter.RawMessage) bool {
		var probe struct {
			CreatedAt string `json:"created_at"`
		}
		if err := json.Unmarshal(record, &probe); err != nil {
			return false
		}
		return probe.CreatedAt > sinceBound
	}

	txsByAccount := make(map[string][]*entity.Transaction, len(accounts))
	var mu sync.Mutex

	eg, childCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.cfg.Fetch.MaxConcurrentRequests)

	for _, account := range accounts {
		acc := account
		for _, sub := range accountSubResources {
			subResource := sub
			eg.Go(func() error {
				path := acc.ResourcePath + "/" + subResource
				records, err := s.client.Fetch(childCtx, path, true, newerThanSince)
				if err != nil {
					return err
				}

				txs := make([]*entity.Transaction, 0, len(records))
				for _, record := range records {
					var data coinbase.TransactionData
					if err := json.Unmarshal(record, &data); err != nil {
						return fmt.Errorf("failed to unmarshal transaction record from %s: %w", path, err)
					}
					tx, err := entity.NewTransaction(data, acc)
					if err != nil {
						return err
					}
					// Crypto deposits and withdrawals surface again as
					// fiat_deposit/fiat_withdrawal in the generic
					// transactions stream; keep the report to one copy.
					if tx.Type() == entity.TypeDeposit || tx.Type() == entity.TypeWithdrawal {
						continue
					}
					txs = append(txs, tx)
				}

				mu.Lock()
				txsByAccount[acc.ResourcePath] = append(txsByAccount[acc.ResourcePath], txs...)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		s.logger.Error("Failed to fetch account activity", zap.Error(err))
		return nil, err
	}
	return txsByAccount, nil
}

// assembleReport resolves descriptions and walks the interleaved groups
// newest to oldest, decrementing per-account and total running balances that
// are seeded from the accounts' current balances.
func (s *ledgerServiceImpl) assembleReport(accounts []*entity.Account, metas []*entity.MetaTransaction, since time.Time) (*entity.LedgerReport, error) {
	balances := make(map[string]decimal.Decimal)
	for _, meta := range metas {
		account := meta.Account()
		if _, ok := balances[account.Name]; !ok {
			balances[account.Name] = account.Balance
		}
	}

	total := decimal.Zero
	for _, balance := range balances {
		total = total.Add(balance)
	}

	rows := make([]entity.LedgerRow, 0, len(metas))
	for _, meta := range metas {
		lines := make([]entity.LedgerLine, 0, len(meta.Transactions))
		for _, tx := range meta.Transactions {
			description, err := tx.Description()
			if err != nil {
				return nil, err
			}
			lines = append(lines, entity.LedgerLine{
				Timestamp:   tx.Timestamp,
				Type:        tx.Type(),
				Description: description,
				Amount:      tx.Amount(),
			})
		}

		name := meta.Account().Name
		amount := meta.Amount()
		accountBalance := balances[name]

		runningTotal := decimal.Zero
		for _, balance := range balances {
			runningTotal = runningTotal.Add(balance)
		}

		rows = append(rows, entity.LedgerRow{
			Timestamp:      meta.Timestamp(),
			AccountName:    name,
			Amount:         amount,
			AccountBalance: accountBalance,
			TotalBalance:   runningTotal,
			Lines:          lines,
		})
		balances[name] = accountBalance.Sub(amount)
	}

	return &entity.LedgerReport{
		Since:       since,
		GeneratedAt: time.Now(),
		Accounts:    accounts,
		Rows:        rows,
		Total:       total,
	}, nil
}

// groupTransactions partitions one account's newest-first transaction stream
// into meta-transactions. Every input transaction lands in exactly one
// group, in order.
func groupTransactions(txs []*entity.Transaction) []*entity.MetaTransaction {
	if len(txs) == 0 {
		return nil
	}

	var groups []*entity.MetaTransaction
	open := entity.NewMetaTransaction()
	for _, tx := range txs {
		if !open.ShouldAdd(tx) {
			groups = append(groups, open)
			open = entity.NewMetaTransaction()
		}
		open.Add(tx)
	}
	return append(groups, open)
}
