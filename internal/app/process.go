package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/ctsmpost/internal/store"
	"github.com/chrissnell/ctsmpost/pkg/pft"
	"github.com/chrissnell/ctsmpost/pkg/phenology"
)

// ErrNoCategories means filtering left no columns to analyse.
var ErrNoCategories = errors.New("app: no crop columns to analyse")

// categoryNames labels each column with its vegetation type name. Types that
// occupy more than one column get the column index appended, e.g. "rice:3".
func categoryNames(types []pft.Type) []string {
	count := make(map[pft.Type]int, len(types))
	for _, t := range types {
		count[t]++
	}
	names := make([]string, len(types))
	for c, t := range types {
		names[c] = t.Name()
		if count[t] > 1 {
			names[c] = fmt.Sprintf("%s:%d", t.Name(), c)
		}
	}
	return names
}

// Process extracts crop calendars for a stored case and records the run.
// With fail_fast set, any crop failing validation aborts the run and nothing
// is stored; otherwise failed crops are stored as failures next to the rest.
func (a *App) Process(ctx context.Context, caseName string) (store.Run, error) {
	series, err := a.store.LoadPhaseSeries(ctx, caseName)
	if err != nil {
		return store.Run{}, err
	}

	types, err := pft.StableVegTypes(series.VegTypes)
	if err != nil {
		return store.Run{}, fmt.Errorf("case %s: %w", caseName, err)
	}

	phase := series.Phase
	if a.cfg.Phenology.ManagedOnly {
		keep := make([]bool, len(types))
		var kept []pft.Type
		for c, t := range types {
			if t.IsManagedCrop() {
				keep[c] = true
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			return store.Run{}, fmt.Errorf("%w: case %s has no managed crops", ErrNoCategories, caseName)
		}
		if phase, err = phase.Mask(store.ColumnDim, keep); err != nil {
			return store.Run{}, err
		}
		a.logger.Debugw("kept managed crop columns", "case", caseName, "kept", len(kept), "columns", len(types))
		types = kept
	}

	names := categoryNames(types)
	m, err := phase.Matrix()
	if err != nil {
		return store.Run{}, err
	}
	opts := phenology.Options{Workers: a.cfg.Phenology.Workers}

	outcomes, err := phenology.ExtractEach(m, series.Times, names, opts)
	if err != nil {
		return store.Run{}, err
	}

	var failed []error
	for _, name := range names {
		if o := outcomes[name]; o.Err != nil {
			a.logger.Warnw("crop calendar rejected", "case", caseName, "pft", name, "error", o.Err)
			failed = append(failed, o.Err)
		}
	}
	if a.cfg.Phenology.FailFast && len(failed) > 0 {
		return store.Run{}, fmt.Errorf("case %s: %d of %d crops failed: %w",
			caseName, len(failed), len(names), errors.Join(failed...))
	}

	run, err := a.store.SaveRun(ctx, caseName, outcomes)
	if err != nil {
		return store.Run{}, err
	}
	a.logger.Infow("extracted crop calendars", "case", caseName, "run", run.ID,
		"crops", run.Categories, "failed", run.Failed)
	return run, nil
}
