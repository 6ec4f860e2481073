package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev7ba/mempool-server/mempool/types"
)

func TestSkipListInsertGetRemove(t *testing.T) {
	sl := newSkipList()

	sl.Insert(5, types.TxBytes("five"))
	sl.Insert(1, types.TxBytes("one"))
	sl.Insert(3, types.TxBytes("three"))

	v, ok := sl.Get(3)
	assert.True(t, ok)
	assert.Equal(t, types.TxBytes("three"), v)

	assert.EqualValues(t, 3, sl.Len())

	sl.Remove(3)
	_, ok = sl.Get(3)
	assert.False(t, ok)
	assert.EqualValues(t, 2, sl.Len())
}

func TestSkipListRemoveAbsentIsNoop(t *testing.T) {
	sl := newSkipList()
	sl.Insert(1, types.TxBytes("one"))
	sl.Remove(99)
	assert.EqualValues(t, 1, sl.Len())
}

func TestSkipListInsertOverwrites(t *testing.T) {
	sl := newSkipList()
	sl.Insert(1, types.TxBytes("first"))
	sl.Insert(1, types.TxBytes("second"))

	v, ok := sl.Get(1)
	assert.True(t, ok)
	assert.Equal(t, types.TxBytes("second"), v)
	assert.EqualValues(t, 1, sl.Len())
}

func TestSkipListAllYieldsAscending(t *testing.T) {
	sl := newSkipList()
	for _, seq := range []types.Seq{5, 1, 9, 3, 7} {
		sl.Insert(seq, types.TxBytes{byte(seq)})
	}

	var seen []types.Seq
	sl.All()(func(e skipListEntry) bool {
		seen = append(seen, e.Seq)
		return true
	})

	want := []types.Seq{1, 3, 5, 7, 9}
	assert.Equal(t, want, seen)
}

func TestSkipListFromLowerBound(t *testing.T) {
	sl := newSkipList()
	for seq := types.Seq(0); seq < 10; seq++ {
		sl.Insert(seq, types.TxBytes{byte(seq)})
	}

	var seen []types.Seq
	sl.From(5)(func(e skipListEntry) bool {
		seen = append(seen, e.Seq)
		return true
	})

	assert.Equal(t, []types.Seq{5, 6, 7, 8, 9}, seen)
}

func TestSkipListIteratorStopsWhenYieldReturnsFalse(t *testing.T) {
	sl := newSkipList()
	for seq := types.Seq(0); seq < 10; seq++ {
		sl.Insert(seq, nil)
	}

	var count int
	sl.All()(func(e skipListEntry) bool {
		count++
		return count < 3
	})

	assert.Equal(t, 3, count)
}
