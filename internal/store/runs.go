package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/ctsmpost/pkg/phenology"
)

// Run is one extraction over one case.
type Run struct {
	ID         string    `json:"run_id"`
	Case       string    `json:"case"`
	CreatedAt  time.Time `json:"created_at"`
	Categories int       `json:"categories"`
	Failed     int       `json:"failed"`
}

// Season is one stored growing season. Open seasons have HarvestDay set to
// phenology.MissingDay.
type Season struct {
	PFT    string `json:"pft"`
	Season int    `json:"season"`
	phenology.EventPair
	Open bool `json:"open"`
}

// Failure records why a category produced no calendar.
type Failure struct {
	PFT     string `json:"pft"`
	Message string `json:"message"`
}

// SaveRun stores the outcome of one extraction under a new run ID.
func (s *Store) SaveRun(ctx context.Context, caseName string, outcomes map[string]phenology.Outcome) (Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		Case:       caseName,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Categories: len(outcomes),
	}
	for _, o := range outcomes {
		if o.Err != nil {
			run.Failed++
		}
	}

	cats := make([]string, 0, len(outcomes))
	for c := range outcomes {
		cats = append(cats, c)
	}
	slices.Sort(cats)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, `
			INSERT INTO extraction_runs (run_id, case_name, created_at, categories, failed)
			VALUES (?, ?, ?, ?, ?)`,
			run.ID, run.Case, run.CreatedAt.Format(time.RFC3339), run.Categories, run.Failed); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, cat := range cats {
			o := outcomes[cat]
			if o.Err != nil {
				if err := s.exec(ctx, tx,
					"INSERT INTO category_failures (run_id, pft, message) VALUES (?, ?, ?)",
					run.ID, cat, o.Err.Error()); err != nil {
					return fmt.Errorf("insert failure for %s: %w", cat, err)
				}
				continue
			}
			for k, p := range o.Pairs {
				var harvestDay sql.NullInt64
				if !p.Open() {
					harvestDay = sql.NullInt64{Int64: int64(p.HarvestDay), Valid: true}
				}
				if err := s.exec(ctx, tx, `
					INSERT INTO crop_calendars
						(run_id, pft, season, sowing_year, sowing_doy, harvest_year, harvest_doy)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
					run.ID, cat, k, p.SowingYear, p.SowingDay, p.HarvestYear, harvestDay); err != nil {
					return fmt.Errorf("insert season %d of %s: %w", k, cat, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}

	s.logger.Infow("stored extraction run", "run", run.ID, "case", caseName,
		"categories", run.Categories, "failed", run.Failed)
	return run, nil
}

func scanRun(scan func(dest ...any) error) (Run, error) {
	var r Run
	var created string
	if err := scan(&r.ID, &r.Case, &created, &r.Categories, &r.Failed); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
	}
	r.CreatedAt = t
	return r, nil
}

// Runs lists every run, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, case_name, created_at, categories, failed
		FROM extraction_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run looks up one run.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT run_id, case_name, created_at, categories, failed
		FROM extraction_runs WHERE run_id = ?`), id)
	r, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Calendars returns the seasons of a run ordered by crop then season. A
// non-empty pft restricts the result to that crop.
func (s *Store) Calendars(ctx context.Context, runID, pft string) ([]Season, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT pft, season, sowing_year, sowing_doy, harvest_year, harvest_doy
		FROM crop_calendars WHERE run_id = ?`
	args := []any{runID}
	if pft != "" {
		query += " AND pft = ?"
		args = append(args, pft)
	}
	query += " ORDER BY pft, season"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query calendars of %s: %w", runID, err)
	}
	defer rows.Close()

	out := []Season{}
	for rows.Next() {
		var se Season
		var harvestDay sql.NullInt64
		if err := rows.Scan(&se.PFT, &se.Season, &se.SowingYear, &se.SowingDay, &se.HarvestYear, &harvestDay); err != nil {
			return nil, err
		}
		se.HarvestDay = phenology.MissingDay
		if harvestDay.Valid {
			se.HarvestDay = int(harvestDay.Int64)
		}
		se.Open = se.EventPair.Open()
		out = append(out, se)
	}
	return out, rows.Err()
}

// Failures returns the categories of a run that failed validation.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT pft, message FROM category_failures WHERE run_id = ? ORDER BY pft"), runID)
	if err != nil {
		return nil, fmt.Errorf("query failures of %s: %w", runID, err)
	}
	defer rows.Close()

	out := []Failure{}
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.PFT, &f.Message); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteRun removes a run with its seasons and failures.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM crop_calendars WHERE run_id = ?",
			"DELETE FROM category_failures WHERE run_id = ?",
		} {
			if err := s.exec(ctx, tx, q, id); err != nil {
				return fmt.Errorf("delete run %s: %w", id, err)
			}
		}
		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM extraction_runs WHERE run_id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete run %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}
