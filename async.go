// File: async.go
package switchboard

import (
	"sort"
	"time"
)

// DefaultPollInterval is both the NotReady backoff and the idle sleep of the
// run loop.
const DefaultPollInterval = 10 * time.Millisecond

type pollKind uint8

const (
	// notPinged: eligible to be polled on the next tick.
	notPinged pollKind = iota
	// wasPinged: an async-check is outstanding.
	wasPinged
	// waiting: the component answered NotReady; hold off until wait elapsed.
	waiting
)

func (k pollKind) String() string {
	switch k {
	case notPinged:
		return "not-pinged"
	case wasPinged:
		return "was-pinged"
	case waiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// pollState is the per-address async completion state.
type pollState struct {
	kind     pollKind
	lastPing time.Time // only meaningful when kind == waiting
	wait     time.Duration
}

// next computes the state for this tick and whether to poll now.
func (s pollState) next(now time.Time) (pollState, bool) {
	switch s.kind {
	case notPinged:
		return pollState{kind: wasPinged}, true
	case waiting:
		if now.Sub(s.lastPing) > s.wait {
			// Eligible again; the poll itself goes out on the following tick.
			return pollState{kind: notPinged}, false
		}
		return s, false
	default:
		return s, false
	}
}

// asyncTracker holds one pollState per tracked address.
type asyncTracker struct {
	states   map[Pid]pollState
	order    []Pid
	interval time.Duration
}

func newAsyncTracker(interval time.Duration, pids ...Pid) *asyncTracker {
	t := &asyncTracker{
		states:   make(map[Pid]pollState, len(pids)),
		interval: interval,
	}
	for _, pid := range pids {
		t.track(pid)
	}
	return t
}

func (t *asyncTracker) track(pid Pid) {
	if _, ok := t.states[pid]; ok {
		return
	}
	t.states[pid] = pollState{kind: notPinged}
	t.order = append(t.order, pid)
	sort.Slice(t.order, func(i, j int) bool { return t.order[i] < t.order[j] })
}

// tick advances every state and returns the async-check messages that are
// due, in ascending address order.
func (t *asyncTracker) tick(now time.Time) []Message {
	var polls []Message
	for _, pid := range t.order {
		state, poll := t.states[pid].next(now)
		t.states[pid] = state
		if poll {
			polls = append(polls, EmptyMessage(pid, IdentAsyncCheck))
		}
	}
	return polls
}

// reset re-arms pid so it is polled on the next tick. Untracked addresses are
// ignored.
func (t *asyncTracker) reset(pid Pid) {
	if _, ok := t.states[pid]; ok {
		t.states[pid] = pollState{kind: notPinged}
	}
}

// markNotReady puts pid into the waiting state, whatever it was before.
func (t *asyncTracker) markNotReady(pid Pid, now time.Time) {
	if _, ok := t.states[pid]; ok {
		t.states[pid] = pollState{kind: waiting, lastPing: now, wait: t.interval}
	}
}

func (t *asyncTracker) state(pid Pid) (pollState, bool) {
	s, ok := t.states[pid]
	return s, ok
}
