package service

import (
	"context"
	"log"
	"time"
)

// QuotaWatcher periodically refreshes the active account's quota so the
// UI shows reasonably fresh token figures without polling the gateway on
// every request. Failures are logged and retried on the next tick; the
// ledger keeps its last-known values throughout.
type QuotaWatcher struct {
	accounts *AccountService
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	running  bool
}

// NewQuotaWatcher creates a watcher refreshing at the given interval.
// A non-positive interval disables the watcher.
func NewQuotaWatcher(accounts *AccountService, interval time.Duration) *QuotaWatcher {
	if accounts == nil {
		return nil
	}
	return &QuotaWatcher{
		accounts: accounts,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background refresh loop. Safe on a nil or disabled
// watcher; both are no-ops.
func (w *QuotaWatcher) Start() {
	if w == nil {
		return
	}
	if w.interval <= 0 {
		log.Println("[QuotaWatcher] Disabled (refresh interval not set)")
		return
	}
	w.running = true
	log.Printf("[QuotaWatcher] Started with interval %v", w.interval)
	go w.run()
}

// Stop terminates the refresh loop and waits for it to exit.
func (w *QuotaWatcher) Stop() {
	if w == nil || !w.running {
		return
	}
	w.running = false
	close(w.stop)
	<-w.done
	log.Println("[QuotaWatcher] Stopped")
}

func (w *QuotaWatcher) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshActive()
		case <-w.stop:
			return
		}
	}
}

func (w *QuotaWatcher) refreshActive() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, err := w.accounts.Refresh(ctx, "")
	if err != nil {
		log.Printf("[QuotaWatcher] Refresh error: %v", err)
		return
	}
	if account == nil {
		// No active account, or the gateway is unreachable. Either way the
		// ledger still holds last-known values.
		return
	}

	metrics := account.Metrics()
	log.Printf("[QuotaWatcher] Account %s: %d/%d tokens (%.1f%%)",
		account.Username, metrics.Used, metrics.Limit, metrics.Percentage)
}
