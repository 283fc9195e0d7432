package labeled

import (
	"fmt"
	"slices"
	"sort"
)

// Dataset groups variables with the dimension coordinates they share, the way
// a model history file does.
type Dataset struct {
	vars   map[string]*Array
	coords map[string][]any
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		vars:   make(map[string]*Array),
		coords: make(map[string][]any),
	}
}

// SetVar stores a variable under name.
func (d *Dataset) SetVar(name string, a *Array) {
	d.vars[name] = a
}

// SetCoord stores the coordinates of a dimension.
func (d *Dataset) SetCoord(dim string, coords []any) {
	d.coords[dim] = slices.Clone(coords)
}

// Var returns the named variable.
func (d *Dataset) Var(name string) (*Array, error) {
	a, ok := d.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVarNotFound, name)
	}
	return a, nil
}

// Coord returns a copy of a dimension's coordinates.
func (d *Dataset) Coord(dim string) ([]any, error) {
	c, ok := d.coords[dim]
	if !ok {
		return nil, fmt.Errorf("%w: dimension %q not in dataset %v", ErrAxisNotFound, dim, d.Dims())
	}
	return slices.Clone(c), nil
}

// Dims lists the dataset's dimensions in sorted order.
func (d *Dataset) Dims() []string {
	dims := make([]string, 0, len(d.coords))
	for k := range d.coords {
		dims = append(dims, k)
	}
	sort.Strings(dims)
	return dims
}
