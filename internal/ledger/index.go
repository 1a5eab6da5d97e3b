package ledger

import (
	"sort"

	"fairdraw/internal/models"
)

// Index resolves positions to deposits for a frozen round. It is immutable
// and safe for concurrent use.
type Index struct {
	roundID uint64
	entries []models.Deposit
	total   uint64
}

func newIndex(roundID uint64, entries []models.Deposit, total uint64) *Index {
	return &Index{roundID: roundID, entries: entries, total: total}
}

func (ix *Index) RoundID() uint64 { return ix.roundID }

func (ix *Index) TotalWeight() uint64 { return ix.total }

func (ix *Index) Len() int { return len(ix.entries) }

// Resolve returns the deposit whose range contains position, which must lie
// in [1, TotalWeight].
func (ix *Index) Resolve(position uint64) (models.Deposit, error) {
	if len(ix.entries) == 0 {
		return models.Deposit{}, models.ErrNoEntries
	}
	if position == 0 || position > ix.total {
		return models.Deposit{}, models.ErrPositionOutOfRange
	}

	// Ranges are gapless, so the first entry ending at or after position owns it.
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].EndPosition >= position
	})
	return ix.entries[i], nil
}
