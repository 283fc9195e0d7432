package duplex

import (
	"fmt"

	"github.com/chrissnell/ctsmpost/pkg/labeled"
)

// FATES names every history dimension "fates_lev<short>".
const dimPrefix = "fates_lev"

// DimName returns the FATES dimension name for a short code, e.g. "age".
func DimName(short string) string { return dimPrefix + short }

// Convention names a FATES duplexed dimension and its two constituents.
// FATES writes the Fast dimension as the fastest-varying one.
type Convention struct {
	Combined string
	Fast     string
	Slow     string
}

var (
	AgePFT = Convention{Combined: "fates_levagepft", Fast: "fates_levage", Slow: "fates_levpft"}
	// SizePFT is the size-class x PFT dimension (fates_levscpf).
	SizePFT = Convention{Combined: "fates_levscpf", Fast: "fates_levscls", Slow: "fates_levpft"}
	// SizeAge is the size-class x patch-age dimension (fates_levscag).
	SizeAge = Convention{Combined: "fates_levscag", Fast: "fates_levscls", Slow: "fates_levage"}
	AgeFuel = Convention{Combined: "fates_levagefuel", Fast: "fates_levage", Slow: "fates_levfuel"}
)

// Apply splits v along c.Combined, taking coordinates from ds. v is either
// a variable name in ds or a *labeled.Array. With preserveOrder the result
// holds (Fast, Slow) where the combined axis was; otherwise Slow takes the
// combined axis' place and Fast is appended.
func (c Convention) Apply(ds *labeled.Dataset, v any, preserveOrder bool) (*labeled.Array, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrUnsupportedInput)
	}

	var a *labeled.Array
	switch x := v.(type) {
	case string:
		var err error
		if a, err = ds.Var(x); err != nil {
			return nil, err
		}
	case *labeled.Array:
		a = x
	default:
		return nil, fmt.Errorf("%w: want variable name or *labeled.Array, got %T", ErrUnsupportedInput, v)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrUnsupportedInput)
	}

	if _, ok := a.AxisIndex(c.Combined); !ok {
		return nil, fmt.Errorf("%w: %q not in %v", ErrAxisNotFound, c.Combined, a.Dims())
	}
	fast, err := ds.Coord(c.Fast)
	if err != nil {
		return nil, err
	}
	slow, err := ds.Coord(c.Slow)
	if err != nil {
		return nil, err
	}

	return Split(a, Spec{
		Combined:    c.Combined,
		Outer:       c.Fast,
		Inner:       c.Slow,
		OuterCoords: fast,
		InnerCoords: slow,
		Layout:      OuterFastest,
		AppendFast:  !preserveOrder,
	})
}

// Deduplex splits the FATES dimension fates_lev<short1><short2> into
// fates_lev<short1> and fates_lev<short2>. short1 is the faster-varying one.
func Deduplex(ds *labeled.Dataset, v any, short1, short2 string, preserveOrder bool) (*labeled.Array, error) {
	c := Convention{
		Combined: DimName(short1 + short2),
		Fast:     DimName(short1),
		Slow:     DimName(short2),
	}
	return c.Apply(ds, v, preserveOrder)
}

// AgeByPFT splits fates_levagepft into (fates_levage, fates_levpft).
func AgeByPFT(ds *labeled.Dataset, v any) (*labeled.Array, error) {
	return AgePFT.Apply(ds, v, true)
}

// SizeClassByPFT splits fates_levscpf into (fates_levscls, fates_levpft).
func SizeClassByPFT(ds *labeled.Dataset, v any) (*labeled.Array, error) {
	return SizePFT.Apply(ds, v, true)
}

// SizeClassByAge splits fates_levscag into (fates_levscls, fates_levage).
func SizeClassByAge(ds *labeled.Dataset, v any) (*labeled.Array, error) {
	return SizeAge.Apply(ds, v, true)
}

// AgeByFuel splits fates_levagefuel into (fates_levage, fates_levfuel).
func AgeByFuel(ds *labeled.Dataset, v any) (*labeled.Array, error) {
	return AgeFuel.Apply(ds, v, true)
}
