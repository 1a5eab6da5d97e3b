package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fairdraw/internal/models"

	"github.com/stretchr/testify/require"
)

func sampleRecord(id uint64) Record {
	seed := models.Hash{1, 2, 3}
	snap := models.Hash{9, 9}
	return Record{
		Round: models.Round{
			ID:             id,
			State:          models.StateDrawn,
			CommitmentHash: models.Hash{7},
			RevealSeed:     &seed,
			SnapshotValue:  &snap,
			TotalWeight:    1<<63 + 5,
			DepositCount:   2,
			EndTime:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Deposits: []models.Deposit{
			{RoundID: id, Index: 0, DepositorID: "alice", BeneficiaryID: "alice", Weight: 5, StartPosition: 1, EndPosition: 5},
			{RoundID: id, Index: 1, DepositorID: "bob", BeneficiaryID: "carol", Weight: 1 << 63, StartPosition: 6, EndPosition: 1<<63 + 5},
		},
		Winners: []models.WinnerRecord{
			{RoundID: id, DrawIndex: 1, RandomNumber: 3, DepositorID: "alice", BeneficiaryID: "alice", RangeStart: 1, RangeEnd: 5},
			{RoundID: id, DrawIndex: 2, RandomNumber: 1 << 62, DepositorID: "bob", BeneficiaryID: "carol", RangeStart: 6, RangeEnd: 1<<63 + 5},
		},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := Open(DriverSQLite, filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	boltStore, err := Open(DriverBolt, filepath.Join(dir, "archive.bolt"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = sqliteStore.Close()
		_ = boltStore.Close()
	})
	return map[string]Store{DriverSQLite: sqliteStore, DriverBolt: boltStore}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord(1)
			require.NoError(t, store.Save(ctx, rec))

			got, err := store.Load(ctx, 1)
			require.NoError(t, err)
			require.Equal(t, rec.Round.ID, got.Round.ID)
			require.Equal(t, rec.Round.TotalWeight, got.Round.TotalWeight)
			require.Equal(t, *rec.Round.RevealSeed, *got.Round.RevealSeed)
			require.Equal(t, *rec.Round.SnapshotValue, *got.Round.SnapshotValue)
			require.True(t, rec.Round.EndTime.Equal(got.Round.EndTime))
			require.Equal(t, rec.Deposits, got.Deposits)
			require.Equal(t, rec.Winners, got.Winners)

			err = store.Save(ctx, rec)
			require.ErrorIs(t, err, ErrDuplicate)

			_, err = store.Load(ctx, 42)
			require.ErrorIs(t, err, models.ErrRoundNotFound)

			require.NoError(t, store.Save(ctx, sampleRecord(2)))
			all, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			require.Equal(t, uint64(1), all[0].Round.ID)
			require.Equal(t, uint64(2), all[1].Round.ID)
		})
	}
}

func TestSaveRejectsUndrawnRound(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord(3)
			rec.Round.State = models.StateClosed
			require.Error(t, store.Save(ctx, rec))

			rec = sampleRecord(3)
			rec.Round.RevealSeed = nil
			require.Error(t, store.Save(ctx, rec))
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(DriverNone, "")
	require.NoError(t, err)
	require.Nil(t, s)

	_, err = Open("postgres", "x")
	require.Error(t, err)
}
