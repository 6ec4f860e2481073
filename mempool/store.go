// Package mempool implements the ordered mempool mirror: a concurrent
// store keyed by transaction id that also maintains a monotonic arrival
// order (Store), the dependency-respecting initial bulk load (Load) and
// the event-driven incremental updater (Updater).
package mempool

import (
	"sync"
	"sync/atomic"

	"github.com/dev7ba/mempool-server/mempool/types"
)

// Store is the concurrent mempool mirror described by the design notes:
// a hash map from TxId to Seq (M1) paired with a concurrent ordered map
// from Seq to TxBytes (M2), plus the monotonic counter that assigns Seq
// values. All operations are safe for unbounded concurrent use; no lock
// is ever held across the two maps, only within each one's own short
// critical section.
type Store struct {
	counter uint64 // atomic; next value handed out is counter.Add(1)-1

	ids  sync.Map // types.TxId -> types.Seq   (M1)
	data *skipList // types.Seq -> types.TxBytes (M2)
}

// NewStore creates an empty store with its counter at zero.
func NewStore() *Store {
	return &Store{data: newSkipList()}
}

// Insert assigns the next Seq to txid and stores bytes under it,
// overwriting any prior mapping for txid. The counter is incremented
// before either map is touched, M1 is written before M2: a reader that
// observes a Seq in M2 but not yet in M1 merely sees one extra entry: a
// reader depending on the opposite order never occurs in this codebase's
// read paths, since iterating M2 directly never consults M1.
func (s *Store) Insert(txid types.TxId, data types.TxBytes) types.Seq {
	seq := types.Seq(atomic.AddUint64(&s.counter, 1) - 1)
	s.ids.Store(txid, seq)
	s.data.Insert(seq, data)
	return seq
}

// Remove deletes txid from the store. It is idempotent: removing an
// absent id is a no-op.
func (s *Store) Remove(txid types.TxId) {
	v, ok := s.ids.LoadAndDelete(txid)
	if !ok {
		return
	}
	s.data.Remove(v.(types.Seq))
}

// Size returns the number of transactions currently present, as
// measured by M1's cardinality.
func (s *Store) Size() int {
	n := 0
	s.ids.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Counter returns the current value of the monotonic arrival counter:
// the total number of insertion attempts made so far, regardless of
// subsequent removals.
func (s *Store) Counter() types.Seq {
	return types.Seq(atomic.LoadUint64(&s.counter))
}

// Lookup returns the Seq currently assigned to txid, if present.
func (s *Store) Lookup(txid types.TxId) (types.Seq, bool) {
	v, ok := s.ids.Load(txid)
	if !ok {
		return 0, false
	}
	return v.(types.Seq), true
}

// IterIds invokes fn for every (TxId, Seq) pair in M1. Iteration order
// is unspecified. Like every iterator on Store, it is snapshot-free: it
// may observe insertions made after iteration starts and may skip
// entries removed during iteration.
func (s *Store) IterIds(fn func(types.TxId, types.Seq) bool) {
	s.ids.Range(func(k, v interface{}) bool {
		return fn(k.(types.TxId), v.(types.Seq))
	})
}

// IterData invokes fn for every (Seq, TxBytes) pair in M2 in ascending
// Seq order.
func (s *Store) IterData(fn func(types.Seq, types.TxBytes) bool) {
	it := s.data.All()
	it(func(e skipListEntry) bool {
		return fn(e.Seq, e.Value)
	})
}

// IterDataFrom invokes fn for every (Seq, TxBytes) pair with Seq >= from,
// in ascending order.
func (s *Store) IterDataFrom(from types.Seq, fn func(types.Seq, types.TxBytes) bool) {
	it := s.data.From(from)
	it(func(e skipListEntry) bool {
		return fn(e.Seq, e.Value)
	})
}
