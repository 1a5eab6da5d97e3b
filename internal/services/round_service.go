package services

import (
	"context"
	"fmt"
	"time"

	"fairdraw/internal/archive"
	"fairdraw/internal/fairness"
	"fairdraw/internal/ledger"
	"fairdraw/internal/metrics"
	"fairdraw/internal/models"
	"fairdraw/internal/snapshot"

	"github.com/algorand/go-deadlock"
	"github.com/google/logger"
)

// DefaultNumWinners is the number of draw slots filled per round.
const DefaultNumWinners = 33

// round holds the data owned exclusively by one round.
type round struct {
	id       uint64
	state    models.RoundState
	seal     fairness.Seal
	snapshot *models.Hash
	endTime  time.Time
	ledger   *ledger.Ledger
	index    *ledger.Index
	winners  []models.WinnerRecord
}

func (r *round) view() models.Round {
	v := models.Round{
		ID:             r.id,
		State:          r.state,
		CommitmentHash: r.seal.CommitmentHash(),
		TotalWeight:    r.ledger.TotalWeight(),
		DepositCount:   r.ledger.Len(),
		EndTime:        r.endTime,
	}
	if revealed, ok := r.seal.(fairness.Revealed); ok {
		v.RevealSeed = models.HashPtr(revealed.Seed())
	}
	if r.snapshot != nil {
		v.SnapshotValue = models.HashPtr(*r.snapshot)
	}
	return v
}

// Options configures a RoundService. Zero values select defaults.
type Options struct {
	NumWinners int
	Archive    archive.Store
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// RoundService runs the round lifecycle Open -> Closed -> Drawn and serves
// the winner registry. All writes go through a single lock, so position
// assignment never races.
type RoundService struct {
	mu         deadlock.RWMutex
	rounds     map[uint64]*round
	order      []uint64
	openID     uint64 // 0 when no round is open
	lastID     uint64
	numWinners int
	archive    archive.Store
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewRoundService creates and initializes a new RoundService.
func NewRoundService(opts Options) *RoundService {
	if opts.NumWinners <= 0 {
		opts.NumWinners = DefaultNumWinners
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RoundService{
		rounds:     make(map[uint64]*round),
		numWinners: opts.NumWinners,
		archive:    opts.Archive,
		metrics:    opts.Metrics,
		now:        opts.Now,
	}
}

func (s *RoundService) NumWinners() int { return s.numWinners }

// Restore loads every archived round, re-deriving each draw from its
// fairness tuple. Nothing is loaded if any record fails. It must run before
// the first round starts; round ids continue after the highest archived id.
func (s *RoundService) Restore(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	records, err := s.archive.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list archived rounds: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rounds) > 0 {
		return fmt.Errorf("restore after rounds were started")
	}
	restored := make([]*round, 0, len(records))
	for _, rec := range records {
		r, err := restoreRound(rec, s.numWinners)
		if err != nil {
			return fmt.Errorf("archived round %d: %w", rec.Round.ID, err)
		}
		restored = append(restored, r)
	}
	for _, r := range restored {
		s.rounds[r.id] = r
		s.order = append(s.order, r.id)
		if r.id > s.lastID {
			s.lastID = r.id
		}
	}
	logger.Infof("Restored %d archived rounds, next round id %d", len(records), s.lastID+1)
	return nil
}

func restoreRound(rec archive.Record, numWinners int) (*round, error) {
	committed, err := fairness.NewCommitted(rec.Round.CommitmentHash)
	if err != nil {
		return nil, err
	}
	if rec.Round.RevealSeed == nil || rec.Round.SnapshotValue == nil {
		return nil, fmt.Errorf("missing fairness tuple")
	}
	revealed, err := committed.Reveal(*rec.Round.RevealSeed)
	if err != nil {
		return nil, err
	}
	l, err := ledger.Restore(rec.Round.ID, rec.Deposits)
	if err != nil {
		return nil, err
	}
	if l.TotalWeight() != rec.Round.TotalWeight {
		return nil, fmt.Errorf("total weight %d does not match deposits (%d)", rec.Round.TotalWeight, l.TotalWeight())
	}
	if len(rec.Winners) != numWinners {
		return nil, fmt.Errorf("has %d winners, service draws %d", len(rec.Winners), numWinners)
	}
	index := l.Freeze()
	if err := checkWinners(rec, revealed, index); err != nil {
		return nil, err
	}
	return &round{
		id:       rec.Round.ID,
		state:    models.StateDrawn,
		seal:     revealed,
		snapshot: models.HashPtr(*rec.Round.SnapshotValue),
		endTime:  rec.Round.EndTime,
		ledger:   l,
		index:    index,
		winners:  append([]models.WinnerRecord(nil), rec.Winners...),
	}, nil
}

// checkWinners re-derives an archived draw and requires every stored
// winner to match the stream and the deposit that owns its position.
func checkWinners(rec archive.Record, revealed fairness.Revealed, index *ledger.Index) error {
	numbers := make([]uint64, len(rec.Winners))
	for i, w := range rec.Winners {
		numbers[i] = w.RandomNumber
	}
	if err := fairness.Verify(revealed.Seed(), *rec.Round.SnapshotValue, index.TotalWeight(), numbers); err != nil {
		return err
	}
	for i, w := range rec.Winners {
		d, err := index.Resolve(w.RandomNumber)
		if err != nil {
			return fmt.Errorf("winner %d: %w", i+1, err)
		}
		want := models.WinnerRecord{
			RoundID:       rec.Round.ID,
			DrawIndex:     i + 1,
			RandomNumber:  w.RandomNumber,
			DepositorID:   d.DepositorID,
			BeneficiaryID: d.BeneficiaryID,
			RangeStart:    d.StartPosition,
			RangeEnd:      d.EndPosition,
		}
		if w != want {
			return fmt.Errorf("%w: winner %d does not match deposit %d", models.ErrStreamMismatch, i+1, d.Index)
		}
	}
	return nil
}

// getRound must be called with s.mu held.
func (s *RoundService) getRound(roundID uint64) (*round, error) {
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrRoundNotFound, roundID)
	}
	return r, nil
}

// StartRound opens a new round bound to commitment. Only an open round
// blocks a new one; a closed round that is not drawn yet stays drawable.
func (s *RoundService) StartRound(commitment models.Hash, endTime time.Time) (models.Round, error) {
	committed, err := fairness.NewCommitted(commitment)
	if err != nil {
		return models.Round{}, err
	}
	if !endTime.After(s.now()) {
		return models.Round{}, models.ErrEndTimeNotFuture
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openID != 0 {
		return models.Round{}, models.ErrRoundActive
	}

	s.lastID++
	r := &round{
		id:      s.lastID,
		state:   models.StateOpen,
		seal:    committed,
		endTime: endTime,
		ledger:  ledger.New(s.lastID),
	}
	s.rounds[r.id] = r
	s.order = append(s.order, r.id)
	s.openID = r.id

	s.metrics.ObserveTransition(models.StateOpen)
	logger.Infof("Round %d opened, commitment %s, ends %s", r.id, commitment, endTime.Format(time.RFC3339))
	return r.view(), nil
}

// CurrentRound returns the open round.
func (s *RoundService) CurrentRound() (models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.openID == 0 {
		return models.Round{}, models.ErrNoOpenRound
	}
	return s.rounds[s.openID].view(), nil
}

// RecordDeposit appends a weighted entry to an open round. Callers invoke
// it only after the matching value transfer has settled.
func (s *RoundService) RecordDeposit(roundID uint64, depositorID, beneficiaryID string, amount uint64) (models.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.getRound(roundID)
	if err != nil {
		return models.Deposit{}, err
	}
	if r.state != models.StateOpen {
		return models.Deposit{}, models.ErrRoundNotOpen
	}

	d, err := r.ledger.Record(depositorID, beneficiaryID, amount)
	if err != nil {
		return models.Deposit{}, err
	}
	s.metrics.ObserveDeposit(d.Weight, r.ledger.TotalWeight())
	return d, nil
}

// CloseRound freezes the open round and captures its snapshot value from
// src. If src fails the round stays open and nothing is recorded; the
// source is consulted exactly once per call.
func (s *RoundService) CloseRound(ctx context.Context, src snapshot.Source) (models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openID == 0 {
		return models.Round{}, models.ErrNoOpenRound
	}
	r := s.rounds[s.openID]
	if !r.state.CanTransition(models.StateClosed) {
		return models.Round{}, models.ErrRoundNotOpen
	}

	// The lock is held across the call so no deposit can land between
	// capture and freeze.
	value, err := src.Snapshot(ctx)
	if err != nil {
		return models.Round{}, fmt.Errorf("round %d: %w", r.id, err)
	}
	if value.IsZero() {
		return models.Round{}, fmt.Errorf("round %d: %w", r.id, snapshot.ErrUnavailable)
	}

	r.snapshot = models.HashPtr(value)
	r.index = r.ledger.Freeze()
	r.state = models.StateClosed
	s.openID = 0

	s.metrics.ObserveTransition(models.StateClosed)
	logger.Infof("Round %d closed with %d deposits, total weight %d, snapshot %s",
		r.id, r.ledger.Len(), r.ledger.TotalWeight(), value)
	return r.view(), nil
}

// DrawWinners reveals serverSeed for a closed round and fills every draw
// slot. A seed that does not match the commitment leaves the round closed
// so the draw can be retried with the correct seed.
func (s *RoundService) DrawWinners(ctx context.Context, roundID uint64, serverSeed models.Hash) ([]models.WinnerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.getRound(roundID)
	if err != nil {
		return nil, err
	}
	switch r.state {
	case models.StateDrawn:
		return nil, models.ErrAlreadyDrawn
	case models.StateClosed:
	default:
		return nil, models.ErrRoundNotClosed
	}
	if r.ledger.TotalWeight() == 0 {
		return nil, models.ErrNoEntries
	}

	committed, ok := r.seal.(fairness.Committed)
	if !ok {
		return nil, models.ErrAlreadyDrawn
	}
	revealed, err := committed.Reveal(serverSeed)
	if err != nil {
		s.metrics.ObserveFairnessFailure()
		logger.Warningf("Round %d: rejected reveal, seed does not match commitment %s", r.id, committed.CommitmentHash())
		return nil, err
	}

	numbers, err := revealed.Stream(*r.snapshot, r.index.TotalWeight(), s.numWinners)
	if err != nil {
		return nil, err
	}
	winners := make([]models.WinnerRecord, 0, len(numbers))
	for i, n := range numbers {
		d, err := r.index.Resolve(n)
		if err != nil {
			return nil, fmt.Errorf("round %d draw %d: %w", r.id, i+1, err)
		}
		winners = append(winners, models.WinnerRecord{
			RoundID:       r.id,
			DrawIndex:     i + 1,
			RandomNumber:  n,
			DepositorID:   d.DepositorID,
			BeneficiaryID: d.BeneficiaryID,
			RangeStart:    d.StartPosition,
			RangeEnd:      d.EndPosition,
		})
	}

	if s.archive != nil {
		drawn := r.view()
		drawn.State = models.StateDrawn
		drawn.RevealSeed = models.HashPtr(serverSeed)
		rec := archive.Record{Round: drawn, Deposits: r.ledger.Entries(), Winners: winners}
		if err := s.archive.Save(ctx, rec); err != nil {
			logger.Errorf("Round %d: failed to archive draw: %v", r.id, err)
			return nil, fmt.Errorf("failed to archive round %d: %w", r.id, err)
		}
	}

	r.seal = revealed
	r.winners = winners
	r.state = models.StateDrawn

	s.metrics.ObserveTransition(models.StateDrawn)
	logger.Infof("Round %d drawn, %d winners over total weight %d", r.id, len(winners), r.index.TotalWeight())
	return append([]models.WinnerRecord(nil), winners...), nil
}

// ResolvePosition maps a position of a closed or drawn round to its deposit.
func (s *RoundService) ResolvePosition(roundID, position uint64) (models.Deposit, error) {
	s.mu.RLock()
	r, err := s.getRound(roundID)
	var ix *ledger.Index
	if err == nil {
		ix = r.index
	}
	s.mu.RUnlock()

	if err != nil {
		return models.Deposit{}, err
	}
	if ix == nil {
		return models.Deposit{}, models.ErrRoundNotClosed
	}
	// The index is immutable, no lock needed.
	return ix.Resolve(position)
}

// GetRound returns a view of roundID.
func (s *RoundService) GetRound(roundID uint64) (models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.getRound(roundID)
	if err != nil {
		return models.Round{}, err
	}
	return r.view(), nil
}

// ListRounds returns every round in id order.
func (s *RoundService) ListRounds() []models.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Round, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rounds[id].view())
	}
	return out
}

// Deposits returns roundID's entries in insertion order.
func (s *RoundService) Deposits(roundID uint64) ([]models.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.getRound(roundID)
	if err != nil {
		return nil, err
	}
	return r.ledger.Entries(), nil
}

// GetDepositsFor returns all of depositorID's entries, ordered by round and
// then by insertion. It is for display only and plays no part in drawing.
func (s *RoundService) GetDepositsFor(depositorID string) []models.Deposit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Deposit, 0)
	for _, id := range s.order {
		out = append(out, s.rounds[id].ledger.DepositsFor(depositorID)...)
	}
	return out
}
