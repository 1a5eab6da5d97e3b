package ledger

import (
	"testing"

	"fairdraw/internal/models"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIndex_Resolve(t *testing.T) {
	l := New(1)
	_, _ = l.Record("alice", "alice", 500)
	_, _ = l.Record("bob", "bob", 500)
	ix := l.Freeze()

	cases := []struct {
		position uint64
		want     string
	}{
		{1, "alice"},
		{500, "alice"},
		{501, "bob"},
		{1000, "bob"},
	}
	for _, c := range cases {
		d, err := ix.Resolve(c.position)
		require.NoError(t, err)
		require.Equal(t, c.want, d.DepositorID, "position %d", c.position)
		require.True(t, d.Contains(c.position))
	}

	_, err := ix.Resolve(0)
	require.ErrorIs(t, err, models.ErrPositionOutOfRange)
	_, err = ix.Resolve(1001)
	require.ErrorIs(t, err, models.ErrPositionOutOfRange)
	require.True(t, models.IsValidationError(err))
}

func TestIndex_NoEntries(t *testing.T) {
	ix := New(1).Freeze()
	_, err := ix.Resolve(1)
	require.ErrorIs(t, err, models.ErrNoEntries)
}

func TestIndex_SnapshotIgnoresLaterMutation(t *testing.T) {
	l := New(1)
	_, _ = l.Record("alice", "alice", 3)
	ix := l.Freeze()

	// Record is refused after Freeze, so the index and ledger agree forever.
	_, err := l.Record("bob", "bob", 3)
	require.Error(t, err)
	require.Equal(t, uint64(3), ix.TotalWeight())
	require.Equal(t, 1, ix.Len())
}

func TestIndex_ResolveCoversEveryPosition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		weights := rapid.SliceOfN(rapid.Uint64Range(1, 40), 1, 30).Draw(rt, "weights")
		l := New(1)
		for i, w := range weights {
			_, err := l.Record(string(rune('a'+i%26)), "b", w)
			require.NoError(rt, err)
		}
		ix := l.Freeze()
		entries := l.Entries()

		for p := uint64(1); p <= ix.TotalWeight(); p++ {
			d, err := ix.Resolve(p)
			require.NoError(rt, err)
			require.True(rt, d.Contains(p))
			owners := 0
			for _, e := range entries {
				if e.Contains(p) {
					owners++
				}
			}
			require.Equal(rt, 1, owners)
		}
	})
}
