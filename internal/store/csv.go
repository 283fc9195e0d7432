package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chrissnell/ctsmpost/pkg/calendar"
)

var ErrBadCSV = errors.New("store: malformed phase sample CSV")

// phaseColumns are the required CSV header names, in any order.
var phaseColumns = []string{"step", "column", "itype_veg", "phase"}

// ReadPhaseCSV parses phase samples from CSV with a header row naming at
// least the columns step, column, itype_veg and phase. Dates come from year
// and doy columns or, when those are absent and dec is not nil, from a raw
// model time column decoded with dec.
func ReadPhaseCSV(r io.Reader, dec *calendar.Decoder) ([]PhaseSample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrBadCSV, err)
	}
	columnIndices := make(map[string]int, len(header))
	for i, h := range header {
		columnIndices[h] = i
	}
	for _, c := range phaseColumns {
		if _, ok := columnIndices[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadCSV, c)
		}
	}
	_, hasYear := columnIndices["year"]
	_, hasDay := columnIndices["doy"]
	_, hasTime := columnIndices["time"]
	decodeTime := !(hasYear && hasDay)
	if decodeTime && (!hasTime || dec == nil) {
		return nil, fmt.Errorf("%w: need year and doy columns, or a time column and its units", ErrBadCSV)
	}

	atoi := func(record []string, line int, c string) (int, error) {
		v, err := strconv.Atoi(record[columnIndices[c]])
		if err != nil {
			return 0, fmt.Errorf("%w: line %d column %s: %v", ErrBadCSV, line, c, err)
		}
		return v, nil
	}
	atof := func(record []string, line int, c string) (float64, error) {
		v, err := strconv.ParseFloat(record[columnIndices[c]], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: line %d column %s: %v", ErrBadCSV, line, c, err)
		}
		return v, nil
	}

	var out []PhaseSample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadCSV, err)
		}

		var p PhaseSample
		for c, dst := range map[string]*int{"step": &p.Step, "column": &p.Column, "itype_veg": &p.VegType} {
			if *dst, err = atoi(record, line, c); err != nil {
				return nil, err
			}
		}
		if p.Phase, err = atof(record, line, "phase"); err != nil {
			return nil, err
		}

		if decodeTime {
			v, err := atof(record, line, "time")
			if err != nil {
				return nil, err
			}
			if p.Date, err = dec.YearDay(v); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line, err)
			}
		} else {
			if p.Date.Year, err = atoi(record, line, "year"); err != nil {
				return nil, err
			}
			if p.Date.Day, err = atoi(record, line, "doy"); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}
