package port

import (
	"context"
	"time"

	"ledger_reporter/internal/domain/entity"
)

// LedgerService assembles the unified account activity ledger.
type LedgerService interface {
	// BuildLedger fetches all reportable accounts and their activity strictly
	// newer than since, aggregates adjacent transactions into
	// meta-transactions and returns the interleaved report. Any fetch or
	// description failure aborts the whole report.
	BuildLedger(ctx context.Context, since time.Time) (*entity.LedgerReport, error)

	// ListAccounts returns snapshots of all accounts visible to the
	// credential.
	ListAccounts(ctx context.Context) ([]*entity.Account, error)
}
