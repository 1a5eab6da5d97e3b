package ledger

import (
	"math"
	"testing"

	"fairdraw/internal/models"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLedger_Record(t *testing.T) {
	l := New(7)

	t.Run("assigns contiguous ranges", func(t *testing.T) {
		a, err := l.Record("alice", "alice", 10)
		require.NoError(t, err)
		require.Equal(t, uint64(1), a.StartPosition)
		require.Equal(t, uint64(10), a.EndPosition)
		require.Equal(t, uint64(7), a.RoundID)

		b, err := l.Record("bob", "carol", 5)
		require.NoError(t, err)
		require.Equal(t, uint64(11), b.StartPosition)
		require.Equal(t, uint64(15), b.EndPosition)
		require.Equal(t, 1, b.Index)
		require.Equal(t, uint64(15), l.TotalWeight())
	})

	t.Run("repeat deposits create new ranges", func(t *testing.T) {
		c, err := l.Record("alice", "alice", 1)
		require.NoError(t, err)
		require.Equal(t, uint64(16), c.StartPosition)
		require.Len(t, l.DepositsFor("alice"), 2)
	})

	t.Run("rejections do not mutate", func(t *testing.T) {
		before := l.Entries()
		total := l.TotalWeight()

		_, err := l.Record("alice", "alice", 0)
		require.ErrorIs(t, err, models.ErrZeroAmount)
		_, err = l.Record("", "alice", 3)
		require.ErrorIs(t, err, models.ErrMissingID)
		_, err = l.Record("alice", "  ", 3)
		require.ErrorIs(t, err, models.ErrMissingID)
		_, err = l.Record("alice", "alice", math.MaxUint64)
		require.ErrorIs(t, err, models.ErrWeightOverflow)
		require.True(t, models.IsValidationError(err))

		require.Equal(t, before, l.Entries())
		require.Equal(t, total, l.TotalWeight())
	})

	t.Run("frozen ledger rejects deposits", func(t *testing.T) {
		l.Freeze()
		_, err := l.Record("dave", "dave", 1)
		require.ErrorIs(t, err, models.ErrRoundNotOpen)
		require.True(t, models.IsStateError(err))
		require.Equal(t, 3, l.Len())
	})
}

func TestLedger_EntriesIsCopy(t *testing.T) {
	l := New(1)
	_, err := l.Record("alice", "alice", 2)
	require.NoError(t, err)

	entries := l.Entries()
	entries[0].DepositorID = "mallory"
	require.Equal(t, "alice", l.Entries()[0].DepositorID)
}

func TestRestore(t *testing.T) {
	src := New(3)
	_, _ = src.Record("alice", "alice", 4)
	_, _ = src.Record("bob", "bob", 6)

	restored, err := Restore(3, src.Entries())
	require.NoError(t, err)
	require.True(t, restored.Frozen())
	require.Equal(t, uint64(10), restored.TotalWeight())

	broken := src.Entries()
	broken[1].StartPosition = 6
	_, err = Restore(3, broken)
	require.Error(t, err)

	_, err = Restore(4, src.Entries())
	require.Error(t, err)
}

func TestLedger_ContiguityProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		weights := rapid.SliceOfN(rapid.Uint64Range(1, 1000), 1, 50).Draw(rt, "weights")
		l := New(1)
		var sum uint64
		for _, w := range weights {
			_, err := l.Record("d", "b", w)
			require.NoError(rt, err)
			sum += w
		}

		entries := l.Entries()
		require.Equal(rt, uint64(1), entries[0].StartPosition)
		for i := 1; i < len(entries); i++ {
			require.Equal(rt, entries[i-1].EndPosition+1, entries[i].StartPosition)
		}
		require.Equal(rt, sum, l.TotalWeight())
		require.Equal(rt, sum, entries[len(entries)-1].EndPosition)
	})
}
