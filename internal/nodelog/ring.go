package nodelog

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ringCapacity is the fixed size of the in-memory log ring.
const ringCapacity = 50

// maxMessageLen is the per-entry message truncation cap.
const maxMessageLen = 128

// Record is one bounded-ring log entry.
type Record struct {
	Time    time.Time
	Level   logrus.Level
	Message string
}

// Ring is a logrus.Hook that mirrors every emitted entry into a bounded
// in-memory ring, oldest evicted on overflow, independent of whatever the
// level-filtered serial sink is doing. It never re-filters by level itself:
// logrus already rejects sub-threshold entries before a hook ever fires.
type Ring struct {
	mu      sync.Mutex
	entries []Record
	next    int
	size    int
}

// NewRing creates an empty ring and registers it as a hook on Logger.
func NewRing() *Ring {
	r := &Ring{entries: make([]Record, ringCapacity)}
	Logger.AddHook(r)
	return r
}

// Levels reports that the ring hooks every level; filtering already
// happened at the logger's configured threshold.
func (r *Ring) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire appends entry to the ring, evicting the oldest on overflow.
func (r *Ring) Fire(entry *logrus.Entry) error {
	msg := entry.Message
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen-3] + "..."
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = Record{Time: entry.Time, Level: entry.Level, Message: msg}
	r.next = (r.next + 1) % ringCapacity
	if r.size < ringCapacity {
		r.size++
	}
	return nil
}

// Snapshot returns a copy of the ring's current contents, oldest first.
func (r *Ring) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, r.size)
	start := r.next - r.size
	if start < 0 {
		start += ringCapacity
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(start+i)%ringCapacity]
	}
	return out
}

// Len reports the number of entries currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
