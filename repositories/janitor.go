package repositories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// StoreJanitor reclaims badger value-log space on a timer. Hard-deleted
// notifications and rewritten read flags leave garbage behind; badger only
// compacts when asked.
type StoreJanitor struct {
	db       *badger.DB
	log      *slog.Logger
	interval time.Duration
}

func NewStoreJanitor(db *badger.DB, log *slog.Logger, interval time.Duration) *StoreJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StoreJanitor{db: db, log: log, interval: interval}
}

func (j *StoreJanitor) Name() string { return "store-janitor" }

// Run loops until the context is canceled. Each tick keeps collecting
// value-log files until badger reports nothing left to rewrite.
func (j *StoreJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			reclaimed := 0
			for {
				err := j.db.RunValueLogGC(0.5)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					j.log.Warn("value log gc failed", "error", err)
					break
				}
				reclaimed++
			}
			if reclaimed > 0 {
				j.log.Debug("value log files rewritten", "count", reclaimed)
			}
		}
	}
}
