// Package archive persists drawn rounds so their audit data survives restarts.
package archive

import (
	"context"
	"errors"
	"fmt"

	"fairdraw/internal/models"
)

var ErrDuplicate = errors.New("round already archived")

// Record is everything needed to re-audit a drawn round.
type Record struct {
	Round    models.Round          `json:"round"`
	Deposits []models.Deposit      `json:"deposits"`
	Winners  []models.WinnerRecord `json:"winners"`
}

// Store is a write-once archive of drawn rounds.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, roundID uint64) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

const (
	DriverNone   = "none"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Open returns the store for driver. DriverNone yields a nil Store.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown archive driver %q", driver)
	}
}

func validate(rec Record) error {
	if rec.Round.State != models.StateDrawn {
		return fmt.Errorf("round %d is %s, only drawn rounds are archived", rec.Round.ID, rec.Round.State)
	}
	if rec.Round.RevealSeed == nil || rec.Round.SnapshotValue == nil {
		return fmt.Errorf("round %d is missing its fairness tuple", rec.Round.ID)
	}
	return nil
}
