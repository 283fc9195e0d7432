// Package pft classifies CLM plant functional types. Whether a type is a
// managed crop is an attribute of the type, fixed in the table below, not
// something re-derived from its name.
package pft

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType    = errors.New("pft: unknown vegetation type")
	ErrVegTypeChanged = errors.New("pft: vegetation type changes over time")
	ErrRaggedVegTypes = errors.New("pft: vegetation type rows differ in length")
)

// Type is a CLM vegetation type, numbered as in pfts1d_itype_veg.
type Type int

type info struct {
	name      string
	managed   bool
	irrigated bool
}

// Order matches the model's itype_veg numbering.
var table = []info{
	{name: "needleleaf_evergreen_temperate_tree"},
	{name: "needleleaf_evergreen_boreal_tree"},
	{name: "needleleaf_deciduous_boreal_tree"},
	{name: "broadleaf_evergreen_tropical_tree"},
	{name: "broadleaf_evergreen_temperate_tree"},
	{name: "broadleaf_deciduous_tropical_tree"},
	{name: "broadleaf_deciduous_temperate_tree"},
	{name: "broadleaf_deciduous_boreal_tree"},
	{name: "broadleaf_evergreen_shrub"},
	{name: "broadleaf_deciduous_temperate_shrub"},
	{name: "broadleaf_deciduous_boreal_shrub"},
	{name: "c3_arctic_grass"},
	{name: "c3_non-arctic_grass"},
	{name: "c4_grass"},
	{name: "unmanaged_c3_crop"},
	{name: "unmanaged_c3_irrigated", irrigated: true},
	{name: "temperate_corn", managed: true},
	{name: "irrigated_temperate_corn", managed: true, irrigated: true},
	{name: "spring_wheat", managed: true},
	{name: "irrigated_spring_wheat", managed: true, irrigated: true},
	{name: "winter_wheat", managed: true},
	{name: "irrigated_winter_wheat", managed: true, irrigated: true},
	{name: "soybean", managed: true},
	{name: "irrigated_soybean", managed: true, irrigated: true},
	{name: "barley", managed: true},
	{name: "irrigated_barley", managed: true, irrigated: true},
	{name: "winter_barley", managed: true},
	{name: "irrigated_winter_barley", managed: true, irrigated: true},
	{name: "rye", managed: true},
	{name: "irrigated_rye", managed: true, irrigated: true},
	{name: "winter_rye", managed: true},
	{name: "irrigated_winter_rye", managed: true, irrigated: true},
	{name: "cassava", managed: true},
	{name: "irrigated_cassava", managed: true, irrigated: true},
	{name: "citrus", managed: true},
	{name: "irrigated_citrus", managed: true, irrigated: true},
	{name: "cocoa", managed: true},
	{name: "irrigated_cocoa", managed: true, irrigated: true},
	{name: "coffee", managed: true},
	{name: "irrigated_coffee", managed: true, irrigated: true},
	{name: "cotton", managed: true},
	{name: "irrigated_cotton", managed: true, irrigated: true},
	{name: "datepalm", managed: true},
	{name: "irrigated_datepalm", managed: true, irrigated: true},
	{name: "foddergrass"},
	{name: "irrigated_foddergrass", irrigated: true},
	{name: "grapes", managed: true},
	{name: "irrigated_grapes", managed: true, irrigated: true},
	{name: "groundnuts", managed: true},
	{name: "irrigated_groundnuts", managed: true, irrigated: true},
	{name: "millet", managed: true},
	{name: "irrigated_millet", managed: true, irrigated: true},
	{name: "oilpalm", managed: true},
	{name: "irrigated_oilpalm", managed: true, irrigated: true},
	{name: "potatoes", managed: true},
	{name: "irrigated_potatoes", managed: true, irrigated: true},
	{name: "pulses", managed: true},
	{name: "irrigated_pulses", managed: true, irrigated: true},
	{name: "rapeseed", managed: true},
	{name: "irrigated_rapeseed", managed: true, irrigated: true},
	{name: "rice", managed: true},
	{name: "irrigated_rice", managed: true, irrigated: true},
	{name: "sorghum", managed: true},
	{name: "irrigated_sorghum", managed: true, irrigated: true},
	{name: "sugarbeet", managed: true},
	{name: "irrigated_sugarbeet", managed: true, irrigated: true},
	{name: "sugarcane", managed: true},
	{name: "irrigated_sugarcane", managed: true, irrigated: true},
	{name: "sunflower", managed: true},
	{name: "irrigated_sunflower", managed: true, irrigated: true},
	{name: "miscanthus", managed: true},
	{name: "irrigated_miscanthus", managed: true, irrigated: true},
	{name: "switchgrass"},
	{name: "irrigated_switchgrass", irrigated: true},
	{name: "tropical_corn", managed: true},
	{name: "irrigated_tropical_corn", managed: true, irrigated: true},
	{name: "tropical_soybean", managed: true},
	{name: "irrigated_tropical_soybean", managed: true, irrigated: true},
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(table))
	for i, in := range table {
		m[in.name] = Type(i)
	}
	return m
}()

// Count is the number of known vegetation types.
func Count() int { return len(table) }

// FromIndex validates an itype_veg value.
func FromIndex(i int) (Type, error) {
	if i < 0 || i >= len(table) {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownType, i)
	}
	return Type(i), nil
}

// Parse looks a type up by its name.
func Parse(name string) (Type, error) {
	t, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

func (t Type) valid() bool { return t >= 0 && int(t) < len(table) }

// Name returns the model's name for t.
func (t Type) Name() string {
	if !t.valid() {
		return fmt.Sprintf("pft(%d)", int(t))
	}
	return table[t].name
}

func (t Type) String() string { return t.Name() }

// IsManagedCrop reports whether t is a cultivated crop functional type.
// Natural vegetation, the unmanaged crops and the crop grasses
// (foddergrass, switchgrass) are not.
func (t Type) IsManagedCrop() bool { return t.valid() && table[t].managed }

// IsIrrigated reports whether t is the irrigated variant of its crop.
func (t Type) IsIrrigated() bool { return t.valid() && table[t].irrigated }

// ManagedCrops lists every managed crop type in itype_veg order.
func ManagedCrops() []Type {
	var out []Type
	for i := range table {
		if table[i].managed {
			out = append(out, Type(i))
		}
	}
	return out
}

// StableVegTypes checks that every column of itype (rows are time steps,
// columns are patches) holds the same value at every step, and returns the
// classified types of the first row.
func StableVegTypes(itype [][]int) ([]Type, error) {
	if len(itype) == 0 {
		return nil, nil
	}
	first := itype[0]
	for t, row := range itype[1:] {
		if len(row) != len(first) {
			return nil, fmt.Errorf("%w: step %d has %d columns, step 0 has %d", ErrRaggedVegTypes, t+1, len(row), len(first))
		}
		for c, v := range row {
			if v != first[c] {
				return nil, fmt.Errorf("%w: column %d is %d at step 0 and %d at step %d", ErrVegTypeChanged, c, first[c], v, t+1)
			}
		}
	}

	out := make([]Type, len(first))
	for c, v := range first {
		ty, err := FromIndex(v)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", c, err)
		}
		out[c] = ty
	}
	return out, nil
}
