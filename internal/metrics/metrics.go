package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Checkout tracks the outcomes the on-call dashboard cares about.
// PartialCommits in particular must stay at zero on transactional
// deployments.
type Checkout struct {
	Attempts       Counter
	Completed      Counter
	StockConflicts Counter
	WalletDeclines Counter
	PartialCommits Counter
}

func (m *Checkout) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"checkout_attempts":        m.Attempts.Load(),
		"checkout_completed":       m.Completed.Load(),
		"checkout_stock_conflicts": m.StockConflicts.Load(),
		"checkout_wallet_declines": m.WalletDeclines.Load(),
		"checkout_partial_commits": m.PartialCommits.Load(),
	}
}
