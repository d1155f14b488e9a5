// Package progress provides the shared progress tracker observed by the
// presentation layer while the pipeline runs. One tracker is created per
// scan session and torn down with it; it is never a process-wide
// singleton, so concurrent sessions and tests cannot interfere.
//
// All state is held in atomics: producers (the traversal goroutine, the
// hashing worker pool, the cleaner) update counters without locks, and
// Snapshot can be called concurrently at any time. Cancellation is
// cooperative: Cancel flips a flag that long-running loops poll at a
// bounded interval.
package progress

import (
	"sync/atomic"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// totalUnknown is the Total value reported while no total has been set.
const totalUnknown = -1

// phaseCounters holds the counters for one pipeline phase.
type phaseCounters struct {
	items atomic.Int64
	bytes atomic.Int64
	total atomic.Int64
}

// Tracker is the synchronized progress state shared by the scanner,
// duplicate finder, and cleaner. The zero value is not usable; call
// NewTracker.
type Tracker struct {
	phase     atomic.Int64
	cancelled atomic.Bool

	// Counters are kept per phase so a later phase never makes an
	// earlier phase's numbers appear to move backwards.
	counters [5]phaseCounters
}

// NewTracker returns a tracker in PhaseIdle with unknown totals.
func NewTracker() *Tracker {
	t := &Tracker{}
	for i := range t.counters {
		t.counters[i].total.Store(totalUnknown)
	}
	return t
}

// SetPhase transitions the tracker to the given phase.
func (t *Tracker) SetPhase(p types.Phase) {
	t.phase.Store(int64(p))
}

// Phase returns the current phase.
func (t *Tracker) Phase() types.Phase {
	return types.Phase(t.phase.Load())
}

// Advance adds items and bytes to the counters of the given phase.
// Deltas may be zero; negative deltas are not used by the pipeline.
func (t *Tracker) Advance(p types.Phase, items, bytes int64) {
	c := &t.counters[clampPhase(p)]
	if items != 0 {
		c.items.Add(items)
	}
	if bytes != 0 {
		c.bytes.Add(bytes)
	}
}

// SetTotal records the expected item count for a phase. The traversal
// phase never knows its total; the hashing and cleaning phases set it
// up front so the presentation layer can render a determinate bar.
func (t *Tracker) SetTotal(p types.Phase, total int64) {
	t.counters[p].total.Store(total)
}

// Snapshot returns an immutable view of the current phase's counters.
// Values within a phase are monotonically non-decreasing; the only
// non-monotonic observation a consumer can make is the single
// transition of the cancelled flag.
func (t *Tracker) Snapshot() types.ProgressSnapshot {
	p := t.Phase()
	c := &t.counters[clampPhase(p)]
	return types.ProgressSnapshot{
		Phase:     p,
		Items:     c.items.Load(),
		Total:     c.total.Load(),
		Bytes:     c.bytes.Load(),
		Cancelled: t.cancelled.Load(),
	}
}

// SnapshotPhase returns the counters of a specific phase, regardless of
// which phase is current.
func (t *Tracker) SnapshotPhase(p types.Phase) types.ProgressSnapshot {
	c := &t.counters[clampPhase(p)]
	return types.ProgressSnapshot{
		Phase:     p,
		Items:     c.items.Load(),
		Total:     c.total.Load(),
		Bytes:     c.bytes.Load(),
		Cancelled: t.cancelled.Load(),
	}
}

// Done marks a phase complete by pinning its total to the items
// processed, so a phase whose total was unknown renders as finished.
func (t *Tracker) Done(p types.Phase) {
	c := &t.counters[clampPhase(p)]
	c.total.Store(c.items.Load())
}

// Cancel requests cooperative cancellation. It is idempotent and takes
// effect for callers that subsequently poll Cancelled; it never
// interrupts an operation mid-flight.
func (t *Tracker) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (t *Tracker) Cancelled() bool {
	return t.cancelled.Load()
}

// clampPhase guards the counter array index against future phase
// values.
func clampPhase(p types.Phase) int {
	if p < 0 || int(p) >= 5 {
		return 0
	}
	return int(p)
}
