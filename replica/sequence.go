package replica

import "sync/atomic"

// sequencer orders responses per entity. Every operation takes a number
// when it is issued; a response is applied only when no operation issued
// later for the same entity has been applied already. Deleted entities are
// buried so late responses cannot bring them back.
//
// reset starts a new session: numbers taken before it are at or below floor
// and are never admitted again.
//
// counter is safe for concurrent use; the maps and floor are guarded by applyMu.
type sequencer struct {
	counter atomic.Uint64
	floor   uint64
	applied map[string]uint64
	buried  map[string]struct{}
}

func newSequencer() *sequencer {
	return &sequencer{applied: map[string]uint64{}, buried: map[string]struct{}{}}
}

func (q *sequencer) begin() uint64 { return q.counter.Add(1) }

// current reports whether seq was taken in the running session.
func (q *sequencer) current(seq uint64) bool { return seq > q.floor }

func (q *sequencer) admit(key string, seq uint64) bool {
	if !q.current(seq) {
		return false
	}
	if _, ok := q.buried[key]; ok {
		return false
	}
	if q.applied[key] > seq {
		return false
	}
	q.applied[key] = seq
	return true
}

func (q *sequencer) bury(key string) {
	q.buried[key] = struct{}{}
}

func (q *sequencer) isBuried(key string) bool {
	_, ok := q.buried[key]
	return ok
}

func (q *sequencer) reset() {
	q.floor = q.counter.Load()
	q.applied = map[string]uint64{}
	q.buried = map[string]struct{}{}
}

const focusKey = "focus"

func taskKey(id string) string    { return "task:" + id }
func projectKey(id string) string { return "project:" + id }
