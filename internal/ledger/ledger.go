package ledger

import (
	"fmt"
	"math"
	"strings"

	"fairdraw/internal/models"
)

// Ledger is the append-only sequence of weighted deposits for one round.
// Entries are addressed by slice index; each stores its own end position so
// that the frozen Index can binary search without any extra structure.
// Ledger does no locking of its own, the owner serializes writes.
type Ledger struct {
	roundID uint64
	entries []models.Deposit
	total   uint64
	frozen  bool
}

// New creates an empty ledger for roundID.
func New(roundID uint64) *Ledger {
	return &Ledger{
		roundID: roundID,
		entries: make([]models.Deposit, 0),
	}
}

// Restore rebuilds a frozen ledger from previously recorded deposits,
// rejecting sequences that are not contiguous from position 1.
func Restore(roundID uint64, deposits []models.Deposit) (*Ledger, error) {
	l := New(roundID)
	for i, d := range deposits {
		if d.RoundID != roundID {
			return nil, fmt.Errorf("deposit %d belongs to round %d, not %d", i, d.RoundID, roundID)
		}
		if d.Index != i || d.Weight == 0 || d.StartPosition != l.total+1 || d.EndPosition != l.total+d.Weight {
			return nil, fmt.Errorf("deposit %d breaks range contiguity", i)
		}
		l.entries = append(l.entries, d)
		l.total = d.EndPosition
	}
	l.frozen = true
	return l, nil
}

// Record appends a deposit of amount on behalf of beneficiaryID. A rejected
// call leaves the ledger untouched.
func (l *Ledger) Record(depositorID, beneficiaryID string, amount uint64) (models.Deposit, error) {
	if l.frozen {
		return models.Deposit{}, models.ErrRoundNotOpen
	}
	if strings.TrimSpace(depositorID) == "" || strings.TrimSpace(beneficiaryID) == "" {
		return models.Deposit{}, models.ErrMissingID
	}
	if amount == 0 {
		return models.Deposit{}, models.ErrZeroAmount
	}
	if amount > math.MaxUint64-l.total {
		return models.Deposit{}, models.ErrWeightOverflow
	}

	d := models.Deposit{
		RoundID:       l.roundID,
		Index:         len(l.entries),
		DepositorID:   depositorID,
		BeneficiaryID: beneficiaryID,
		Weight:        amount,
		StartPosition: l.total + 1,
		EndPosition:   l.total + amount,
	}
	l.entries = append(l.entries, d)
	l.total = d.EndPosition
	return d, nil
}

// Freeze stops further deposits and returns the position index over the
// final set of entries. Calling it again returns an equivalent index.
func (l *Ledger) Freeze() *Index {
	l.frozen = true
	return newIndex(l.roundID, l.Entries(), l.total)
}

func (l *Ledger) Frozen() bool { return l.frozen }

func (l *Ledger) TotalWeight() uint64 { return l.total }

func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy of the deposits in insertion order.
func (l *Ledger) Entries() []models.Deposit {
	out := make([]models.Deposit, len(l.entries))
	copy(out, l.entries)
	return out
}

// DepositsFor returns depositorID's entries in insertion order.
func (l *Ledger) DepositsFor(depositorID string) []models.Deposit {
	var out []models.Deposit
	for _, d := range l.entries {
		if d.DepositorID == depositorID {
			out = append(out, d)
		}
	}
	return out
}
