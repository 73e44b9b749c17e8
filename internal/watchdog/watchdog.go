// Package watchdog simulates the hardware watchdog timer: since no real
// WDT exists on a host process, Check reports whether the deadline would
// have been missed had this been real silicon, instead of actually
// resetting anything.
package watchdog

import (
	"sync"
	"time"
)

// Mode selects the watchdog's timeout profile.
type Mode string

const (
	Production   Mode = "production"
	Provisioning Mode = "provisioning"
)

const (
	productionTimeout   = 5 * time.Second
	provisioningTimeout = 2 * time.Minute
)

// Watchdog tracks feed history and reports missed deadlines.
type Watchdog struct {
	mu              sync.Mutex
	mode            Mode
	timeout         time.Duration
	lastFeed        time.Time
	lastFeedBy      string
	feedCount       uint64
	timeouts24h     []time.Time
	now             func() time.Time
}

// New creates a watchdog starting in Production mode.
func New() *Watchdog {
	w := &Watchdog{
		mode:    Production,
		timeout: productionTimeout,
		now:     time.Now,
	}
	w.lastFeed = w.now()
	return w
}

// SetMode switches the timeout profile; called by the supervisor on
// lifecycle transitions.
func (w *Watchdog) SetMode(mode Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = mode
	if mode == Production {
		w.timeout = productionTimeout
	} else {
		w.timeout = provisioningTimeout
	}
	w.lastFeed = w.now()
}

// Feed records a feeding from component, resetting the deadline.
func (w *Watchdog) Feed(component string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastFeed = w.now()
	w.lastFeedBy = component
	w.feedCount++
}

// Check reports whether the current deadline has been missed, recording
// a timeout event (rolling 24h window) when it has.
func (w *Watchdog) Check() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.lastFeed) <= w.timeout {
		return false
	}

	w.timeouts24h = append(w.timeouts24h, now)
	w.pruneLocked(now)
	return true
}

func (w *Watchdog) pruneLocked(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for ; i < len(w.timeouts24h); i++ {
		if w.timeouts24h[i].After(cutoff) {
			break
		}
	}
	w.timeouts24h = w.timeouts24h[i:]
}

// Snapshot is the diagnostic view the health monitor embeds.
type Snapshot struct {
	Mode            Mode
	Timeout         time.Duration
	LastFeed        time.Time
	LastFeedBy      string
	FeedCount       uint64
	TimeoutCount24h int
}

// Snapshot returns the current diagnostic view.
func (w *Watchdog) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(w.now())
	return Snapshot{
		Mode:            w.mode,
		Timeout:         w.timeout,
		LastFeed:        w.lastFeed,
		LastFeedBy:      w.lastFeedBy,
		FeedCount:       w.feedCount,
		TimeoutCount24h: len(w.timeouts24h),
	}
}
