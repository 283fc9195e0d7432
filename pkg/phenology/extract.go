package phenology

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
)

// Options tunes an extraction. The zero value is ready to use.
type Options struct {
	// FallowCode is the phase value meaning fallow; 0 selects DefaultFallowCode.
	FallowCode int
	// Workers bounds how many categories are analysed at once; 0 selects GOMAXPROCS.
	Workers int
}

func (o Options) fallow() int {
	if o.FallowCode == 0 {
		return DefaultFallowCode
	}
	return o.FallowCode
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// Outcome is the result for one category: its seasons, or the reason none
// could be trusted.
type Outcome struct {
	Pairs []EventPair
	Err   error
}

func validate(phase mat.Matrix, times []calendar.YearDay, categories []string) error {
	if phase == nil {
		return fmt.Errorf("%w: nil phase matrix", ErrInput)
	}
	rows, cols := phase.Dims()
	if rows != len(times) {
		return fmt.Errorf("%w: %d time steps in phase series, %d in time index", ErrInput, rows, len(times))
	}
	if cols != len(categories) {
		return fmt.Errorf("%w: %d columns in phase series, %d categories", ErrInput, cols, len(categories))
	}
	seen := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: category %q appears twice", ErrInput, c)
		}
		seen[c] = struct{}{}
	}
	for t := 1; t < len(times); t++ {
		if !times[t-1].Before(times[t]) {
			return fmt.Errorf("%w: time index not increasing at step %d (%s then %s)", ErrInput, t, times[t-1], times[t])
		}
	}
	return nil
}

// ExtractEach analyses every category of phase (rows are time steps, columns
// follow categories) independently. The returned error only reports malformed
// input; per-category failures are in each Outcome.
func ExtractEach(phase mat.Matrix, times []calendar.YearDay, categories []string, opts Options) (map[string]Outcome, error) {
	if err := validate(phase, times, categories); err != nil {
		return nil, err
	}

	results := make([]Outcome, len(categories))
	var g errgroup.Group
	g.SetLimit(opts.workers())
	for j, cat := range categories {
		g.Go(func() error {
			series := mat.Col(nil, j, phase)
			sow, har := Detect(series, times, opts.fallow())
			pairs, err := Pair(cat, sow, har)
			results[j] = Outcome{Pairs: pairs, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Outcome, len(categories))
	for j, cat := range categories {
		out[cat] = results[j]
	}
	return out, nil
}

// Extract is ExtractEach for callers that cannot use partial results: any
// failing category fails the whole call, with every category's error joined
// in column order.
func Extract(phase mat.Matrix, times []calendar.YearDay, categories []string, opts Options) (map[string][]EventPair, error) {
	outcomes, err := ExtractEach(phase, times, categories, opts)
	if err != nil {
		return nil, err
	}

	var errs []error
	out := make(map[string][]EventPair, len(outcomes))
	for _, cat := range categories {
		o := outcomes[cat]
		if o.Err != nil {
			errs = append(errs, o.Err)
			continue
		}
		out[cat] = o.Pairs
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
