package services

import "fairdraw/internal/models"

// GetWinner returns the record of draw slot drawIndex (1-based).
func (s *RoundService) GetWinner(roundID uint64, drawIndex int) (models.WinnerRecord, error) {
	if drawIndex < 1 || drawIndex > s.numWinners {
		return models.WinnerRecord{}, models.ErrDrawIndexOutOfRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.getRound(roundID)
	if err != nil {
		return models.WinnerRecord{}, err
	}
	if r.state != models.StateDrawn {
		return models.WinnerRecord{}, models.ErrNotDrawn
	}
	return r.winners[drawIndex-1], nil
}

// Winners returns every winner record of a drawn round.
func (s *RoundService) Winners(roundID uint64) ([]models.WinnerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.getRound(roundID)
	if err != nil {
		return nil, err
	}
	if r.state != models.StateDrawn {
		return nil, models.ErrNotDrawn
	}
	return append([]models.WinnerRecord(nil), r.winners...), nil
}

// VerifyFairness returns the public tuple for roundID. RevealSeed and
// SnapshotValue stay nil until the round is drawn and closed respectively.
func (s *RoundService) VerifyFairness(roundID uint64) (models.FairnessProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.getRound(roundID)
	if err != nil {
		return models.FairnessProof{}, err
	}
	v := r.view()
	return models.FairnessProof{
		RoundID:        v.ID,
		CommitmentHash: v.CommitmentHash,
		RevealSeed:     v.RevealSeed,
		SnapshotValue:  v.SnapshotValue,
		TotalWeight:    v.TotalWeight,
	}, nil
}
