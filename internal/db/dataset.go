package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/election.report/internal/results"
)

// ErrEmptyDataset is returned by LoadSnapshot before anything was imported.
var ErrEmptyDataset = errors.New("dataset is empty; run the import command first")

// ImportRecord describes one completed import.
type ImportRecord struct {
	ID            string
	ResultRows    int
	ElectoralRows int
	FirstYear     int
	LastYear      int
	ImportedAt    time.Time
}

// ImportSnapshot replaces the stored dataset with the contents of snap in a
// single transaction.
func (db *DB) ImportSnapshot(ctx context.Context, snap *results.Snapshot) (*ImportRecord, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return nil, fmt.Errorf("clear results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM electoral"); err != nil {
		return nil, fmt.Errorf("clear electoral: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (year, state, state_po, party, pct) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer rowStmt.Close()
	rows := snap.AllRows()
	for _, r := range rows {
		if _, err := rowStmt.ExecContext(ctx, r.Year, r.State, r.StatePO, string(r.Party), r.Pct); err != nil {
			return nil, fmt.Errorf("insert result %d/%s/%s: %w", r.Year, r.StatePO, r.Party, err)
		}
	}

	allocStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO electoral (state_po, state, college, polls) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer allocStmt.Close()
	alloc := snap.Allocations()
	for _, a := range alloc {
		if _, err := allocStmt.ExecContext(ctx, a.StatePO, a.State, a.ElectoralVotes, a.InitialLean.String()); err != nil {
			return nil, fmt.Errorf("insert electoral %s: %w", a.StatePO, err)
		}
	}

	first, last := snap.YearRange()
	rec := &ImportRecord{
		ID:            uuid.NewString(),
		ResultRows:    len(rows),
		ElectoralRows: len(alloc),
		FirstYear:     first,
		LastYear:      last,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (import_id, result_rows, electoral_rows, first_year, last_year) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ResultRows, rec.ElectoralRows, rec.FirstYear, rec.LastYear,
	); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	rec.ImportedAt = time.Now()
	return rec, nil
}

// LoadSnapshot reads the stored dataset into a Snapshot.
func (db *DB) LoadSnapshot(ctx context.Context) (*results.Snapshot, error) {
	rows, err := db.loadResults(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	alloc, err := db.loadElectoral(ctx)
	if err != nil {
		return nil, err
	}
	return results.NewSnapshot(rows, alloc)
}

func (db *DB) loadResults(ctx context.Context) ([]results.ResultRow, error) {
	rs, err := db.QueryContext(ctx,
		`SELECT year, state, state_po, party, pct FROM results ORDER BY year, state_po, party`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rs.Close()

	var out []results.ResultRow
	for rs.Next() {
		var (
			r     results.ResultRow
			party string
		)
		if err := rs.Scan(&r.Year, &r.State, &r.StatePO, &party, &r.Pct); err != nil {
			return nil, err
		}
		r.Party = results.Party(party)
		out = append(out, r)
	}
	return out, rs.Err()
}

func (db *DB) loadElectoral(ctx context.Context) ([]results.ElectoralAllocation, error) {
	rs, err := db.QueryContext(ctx,
		`SELECT state_po, state, college, polls FROM electoral ORDER BY state_po`)
	if err != nil {
		return nil, fmt.Errorf("query electoral: %w", err)
	}
	defer rs.Close()

	var out []results.ElectoralAllocation
	for rs.Next() {
		var (
			a     results.ElectoralAllocation
			polls string
		)
		if err := rs.Scan(&a.StatePO, &a.State, &a.ElectoralVotes, &polls); err != nil {
			return nil, err
		}
		if a.InitialLean, err = results.ParseRating(polls); err != nil {
			return nil, fmt.Errorf("electoral %s: %w", a.StatePO, err)
		}
		out = append(out, a)
	}
	return out, rs.Err()
}

// LastImport returns the most recent import, or nil if there has been none.
func (db *DB) LastImport(ctx context.Context) (*ImportRecord, error) {
	var (
		rec ImportRecord
		at  string
	)
	err := db.QueryRowContext(ctx, `
		SELECT import_id, result_rows, electoral_rows, first_year, last_year, imported_at
		FROM imports ORDER BY imported_at DESC, rowid DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.ResultRows, &rec.ElectoralRows, &rec.FirstYear, &rec.LastYear, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last import: %w", err)
	}
	if t, perr := time.Parse(time.DateTime, at); perr == nil {
		rec.ImportedAt = t
	} else if t, perr := time.Parse(time.RFC3339, at); perr == nil {
		rec.ImportedAt = t
	}
	return &rec, nil
}
