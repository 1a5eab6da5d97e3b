package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fairdraw/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps drawn rounds in three tables keyed by round id.
// Unsigned values are stored bit-for-bit in INTEGER columns.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) setup() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			commitment_hash TEXT NOT NULL,
			reveal_seed TEXT NOT NULL,
			snapshot_value TEXT NOT NULL,
			total_weight INTEGER NOT NULL,
			deposit_count INTEGER NOT NULL,
			end_time TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS deposits (
			round_id INTEGER NOT NULL REFERENCES rounds(id),
			idx INTEGER NOT NULL,
			depositor_id TEXT NOT NULL,
			beneficiary_id TEXT NOT NULL,
			weight INTEGER NOT NULL,
			start_position INTEGER NOT NULL,
			end_position INTEGER NOT NULL,
			PRIMARY KEY (round_id, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_depositor ON deposits(depositor_id)`,
		`CREATE TABLE IF NOT EXISTS winners (
			round_id INTEGER NOT NULL REFERENCES rounds(id),
			draw_index INTEGER NOT NULL,
			random_number INTEGER NOT NULL,
			depositor_id TEXT NOT NULL,
			beneficiary_id TEXT NOT NULL,
			range_start INTEGER NOT NULL,
			range_end INTEGER NOT NULL,
			PRIMARY KEY (round_id, draw_index)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to set up archive schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM rounds WHERE id = ?`, int64(rec.Round.ID)).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %d", ErrDuplicate, rec.Round.ID)
	}

	r := rec.Round
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (id, commitment_hash, reveal_seed, snapshot_value, total_weight, deposit_count, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(r.ID), r.CommitmentHash.String(), r.RevealSeed.String(), r.SnapshotValue.String(),
		int64(r.TotalWeight), r.DepositCount, r.EndTime.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert round %d: %w", r.ID, err)
	}

	for _, d := range rec.Deposits {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deposits (round_id, idx, depositor_id, beneficiary_id, weight, start_position, end_position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(d.RoundID), d.Index, d.DepositorID, d.BeneficiaryID,
			int64(d.Weight), int64(d.StartPosition), int64(d.EndPosition))
		if err != nil {
			return fmt.Errorf("failed to insert deposit %d of round %d: %w", d.Index, r.ID, err)
		}
	}

	for _, w := range rec.Winners {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO winners (round_id, draw_index, random_number, depositor_id, beneficiary_id, range_start, range_end)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(w.RoundID), w.DrawIndex, int64(w.RandomNumber), w.DepositorID, w.BeneficiaryID,
			int64(w.RangeStart), int64(w.RangeEnd))
		if err != nil {
			return fmt.Errorf("failed to insert winner %d of round %d: %w", w.DrawIndex, r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context, roundID uint64) (Record, error) {
	var (
		rec                          Record
		id, total                    int64
		commitment, seedHex, snapHex string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, commitment_hash, reveal_seed, snapshot_value, total_weight, deposit_count, end_time
		FROM rounds WHERE id = ?`, int64(roundID)).
		Scan(&id, &commitment, &seedHex, &snapHex, &total, &rec.Round.DepositCount, &rec.Round.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %d", models.ErrRoundNotFound, roundID)
	}
	if err != nil {
		return Record{}, err
	}

	rec.Round.ID = uint64(id)
	rec.Round.State = models.StateDrawn
	rec.Round.TotalWeight = uint64(total)
	if rec.Round.CommitmentHash, err = models.ParseHash(commitment); err != nil {
		return Record{}, err
	}
	seed, err := models.ParseHash(seedHex)
	if err != nil {
		return Record{}, err
	}
	snap, err := models.ParseHash(snapHex)
	if err != nil {
		return Record{}, err
	}
	rec.Round.RevealSeed = &seed
	rec.Round.SnapshotValue = &snap

	if rec.Deposits, err = s.loadDeposits(ctx, roundID); err != nil {
		return Record{}, err
	}
	if rec.Winners, err = s.loadWinners(ctx, roundID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *SQLiteStore) loadDeposits(ctx context.Context, roundID uint64) ([]models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, depositor_id, beneficiary_id, weight, start_position, end_position
		FROM deposits WHERE round_id = ? ORDER BY idx`, int64(roundID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deposits := make([]models.Deposit, 0)
	for rows.Next() {
		var (
			d                  models.Deposit
			weight, start, end int64
		)
		if err := rows.Scan(&d.Index, &d.DepositorID, &d.BeneficiaryID, &weight, &start, &end); err != nil {
			return nil, err
		}
		d.RoundID = roundID
		d.Weight, d.StartPosition, d.EndPosition = uint64(weight), uint64(start), uint64(end)
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func (s *SQLiteStore) loadWinners(ctx context.Context, roundID uint64) ([]models.WinnerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT draw_index, random_number, depositor_id, beneficiary_id, range_start, range_end
		FROM winners WHERE round_id = ? ORDER BY draw_index`, int64(roundID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	winners := make([]models.WinnerRecord, 0)
	for rows.Next() {
		var (
			w                            models.WinnerRecord
			random, rangeStart, rangeEnd int64
		)
		if err := rows.Scan(&w.DrawIndex, &random, &w.DepositorID, &w.BeneficiaryID, &rangeStart, &rangeEnd); err != nil {
			return nil, err
		}
		w.RoundID = roundID
		w.RandomNumber, w.RangeStart, w.RangeEnd = uint64(random), uint64(rangeStart), uint64(rangeEnd)
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM rounds ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, uint64(id))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
