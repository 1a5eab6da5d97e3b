package services

import (
	"context"
	"testing"

	"fairdraw/internal/fairness"
	"fairdraw/internal/models"

	"github.com/stretchr/testify/require"
)

func TestGetWinner(t *testing.T) {
	ctx := context.Background()
	s := newTestService(Options{NumWinners: 3})
	id := openRound(t, s, 1)
	_, _ = s.RecordDeposit(id, "alice", "alice", 4)

	_, err := s.GetWinner(id, 0)
	require.ErrorIs(t, err, models.ErrDrawIndexOutOfRange)
	_, err = s.GetWinner(id, 4)
	require.ErrorIs(t, err, models.ErrDrawIndexOutOfRange)
	_, err = s.GetWinner(id, 1)
	require.ErrorIs(t, err, models.ErrNotDrawn)

	_, err = s.CloseRound(ctx, snapFor(1))
	require.NoError(t, err)
	_, err = s.GetWinner(id, 1)
	require.ErrorIs(t, err, models.ErrNotDrawn)

	winners, err := s.DrawWinners(ctx, id, seedFor(1))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		w, err := s.GetWinner(id, i)
		require.NoError(t, err)
		require.Equal(t, winners[i-1], w)
		require.Equal(t, "alice", w.DepositorID)
	}
}

func TestVerifyFairness_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(Options{NumWinners: 2})
	id := openRound(t, s, 5)
	_, _ = s.RecordDeposit(id, "alice", "alice", 10)

	proof, err := s.VerifyFairness(id)
	require.NoError(t, err)
	require.Equal(t, fairness.Commit(seedFor(5)), proof.CommitmentHash)
	require.Nil(t, proof.SnapshotValue)
	require.Nil(t, proof.RevealSeed)
	require.Equal(t, uint64(10), proof.TotalWeight)

	_, err = s.CloseRound(ctx, snapFor(5))
	require.NoError(t, err)
	proof, err = s.VerifyFairness(id)
	require.NoError(t, err)
	require.NotNil(t, proof.SnapshotValue)
	require.Nil(t, proof.RevealSeed)

	winners, err := s.DrawWinners(ctx, id, seedFor(5))
	require.NoError(t, err)
	proof, err = s.VerifyFairness(id)
	require.NoError(t, err)
	require.Equal(t, seedFor(5), *proof.RevealSeed)

	// An auditor recomputes the winners from the published tuple alone.
	numbers, err := fairness.DeriveRandomStream(*proof.RevealSeed, *proof.SnapshotValue, proof.TotalWeight, len(winners))
	require.NoError(t, err)
	for i, w := range winners {
		require.Equal(t, numbers[i], w.RandomNumber)
	}

	_, err = s.VerifyFairness(77)
	require.ErrorIs(t, err, models.ErrRoundNotFound)
}
