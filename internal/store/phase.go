package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
	"github.com/chrissnell/ctsmpost/pkg/labeled"
)

const (
	TimeDim   = "time"
	ColumnDim = "column"
)

// PhaseSample is one patch column's crop phase at one time step.
type PhaseSample struct {
	Step    int
	Date    calendar.YearDay
	Column  int
	VegType int
	Phase   float64
}

// PhaseSeries is a case's crop phase history as a grid.
type PhaseSeries struct {
	// Phase has axes [time, column]; time coordinates are calendar.YearDay.
	Phase *labeled.Array
	Times []calendar.YearDay
	// VegTypes[t][c] is the itype_veg of column c at step t.
	VegTypes [][]int
}

// SavePhaseSamples replaces the stored samples of caseName.
func (s *Store) SavePhaseSamples(ctx context.Context, caseName string, samples []PhaseSample) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.exec(ctx, tx, "DELETE FROM phase_samples WHERE case_name = ?", caseName); err != nil {
			return fmt.Errorf("clear samples of %s: %w", caseName, err)
		}
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO phase_samples (case_name, step, year, doy, column_index, itype_veg, phase)
			VALUES (?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare sample insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range samples {
			if _, err := stmt.ExecContext(ctx, caseName, p.Step, p.Date.Year, p.Date.Day, p.Column, p.VegType, p.Phase); err != nil {
				return fmt.Errorf("insert sample step %d column %d: %w", p.Step, p.Column, err)
			}
		}
		s.logger.Debugw("stored phase samples", "case", caseName, "samples", len(samples))
		return nil
	})
}

// Cases lists the cases with stored phase samples.
func (s *Store) Cases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT case_name FROM phase_samples ORDER BY case_name")
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadPhaseSeries reads a case's samples back as a [time, column] grid. Every
// step must carry every column 0..n-1 and steps must be numbered 0..T-1.
func (s *Store) LoadPhaseSeries(ctx context.Context, caseName string) (*PhaseSeries, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT step, year, doy, column_index, itype_veg, phase
		FROM phase_samples WHERE case_name = ?
		ORDER BY step, column_index`), caseName)
	if err != nil {
		return nil, fmt.Errorf("query samples of %s: %w", caseName, err)
	}
	defer rows.Close()

	var samples []PhaseSample
	for rows.Next() {
		var p PhaseSample
		if err := rows.Scan(&p.Step, &p.Date.Year, &p.Date.Day, &p.Column, &p.VegType, &p.Phase); err != nil {
			return nil, err
		}
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCaseNotFound, caseName)
	}

	ncol := 0
	for _, p := range samples {
		if p.Step != 0 {
			break
		}
		ncol++
	}
	if ncol == 0 {
		return nil, fmt.Errorf("%w: first step is %d, not 0", ErrIncompleteSeries, samples[0].Step)
	}
	if len(samples)%ncol != 0 {
		return nil, fmt.Errorf("%w: %d samples for %d columns", ErrIncompleteSeries, len(samples), ncol)
	}
	nt := len(samples) / ncol

	series := &PhaseSeries{
		Times:    make([]calendar.YearDay, nt),
		VegTypes: make([][]int, nt),
	}
	data := make([]float64, len(samples))
	for i, p := range samples {
		t, c := i/ncol, i%ncol
		if p.Step != t || p.Column != c {
			return nil, fmt.Errorf("%w: expected step %d column %d, found step %d column %d",
				ErrIncompleteSeries, t, c, p.Step, p.Column)
		}
		if c == 0 {
			series.Times[t] = p.Date
			series.VegTypes[t] = make([]int, ncol)
		} else if p.Date != series.Times[t] {
			return nil, fmt.Errorf("%w: step %d dated %s in column 0 and %s in column %d",
				ErrIncompleteSeries, t, series.Times[t], p.Date, c)
		}
		series.VegTypes[t][c] = p.VegType
		data[i] = p.Phase
	}

	times := make([]any, nt)
	for t, d := range series.Times {
		times[t] = d
	}
	series.Phase, err = labeled.New(data,
		labeled.Axis{Name: TimeDim, Coords: times},
		labeled.Axis{Name: ColumnDim, Coords: labeled.IndexCoords(ncol)},
	)
	if err != nil {
		return nil, err
	}
	return series, nil
}
