package duplex

import (
	"testing"

	"github.com/chrissnell/ctsmpost/pkg/labeled"
	"github.com/stretchr/testify/require"
)

// fatesDataset builds a history-like dataset with three patch-age classes,
// two PFTs, two size classes and an agepft variable holding age + pft*nage,
// i.e. the FATES storage order.
func fatesDataset(t *testing.T) (*labeled.Dataset, *labeled.Array) {
	t.Helper()
	ages := []any{0.0, 10.0, 50.0}
	pfts := []any{1, 2}
	scls := []any{0.0, 20.0}

	ds := labeled.NewDataset()
	ds.SetCoord("fates_levage", ages)
	ds.SetCoord("fates_levpft", pfts)
	ds.SetCoord("fates_levscls", scls)

	data := make([]float64, 0, 12)
	for tm := 0; tm < 2; tm++ {
		for k := 0; k < 6; k++ {
			data = append(data, float64(100*tm+k))
		}
	}
	v, err := labeled.New(data,
		labeled.Axis{Name: "time", Coords: []any{0, 1}},
		labeled.Axis{Name: "fates_levagepft", Coords: labeled.IndexCoords(6)},
	)
	require.NoError(t, err)
	v = v.WithAttrs(map[string]string{"long_name": "leaf area by age and pft", "units": "m2/m2"})
	ds.SetVar("FATES_LAI_AP", v)
	return ds, v
}

func TestAgeByPFT(t *testing.T) {
	ds, v := fatesDataset(t)

	for _, in := range []any{"FATES_LAI_AP", v} {
		out, err := AgeByPFT(ds, in)
		require.NoError(t, err)
		require.Equal(t, []string{"time", "fates_levage", "fates_levpft"}, out.Dims())

		for age := 0; age < 3; age++ {
			for pft := 0; pft < 2; pft++ {
				got, err := out.At(1, age, pft)
				require.NoError(t, err)
				require.Equal(t, float64(100+age+pft*3), got)
			}
		}

		c, _ := out.Coords("fates_levage")
		require.Equal(t, []any{0.0, 10.0, 50.0}, c)
		require.Equal(t, "m2/m2", out.Attrs()["units"])
	}
}

func TestDeduplexOrder(t *testing.T) {
	ds, _ := fatesDataset(t)

	out, err := Deduplex(ds, "FATES_LAI_AP", "age", "pft", true)
	require.NoError(t, err)
	require.Equal(t, []string{"time", "fates_levage", "fates_levpft"}, out.Dims())

	out, err = Deduplex(ds, "FATES_LAI_AP", "age", "pft", false)
	require.NoError(t, err)
	require.Equal(t, []string{"time", "fates_levpft", "fates_levage"}, out.Dims())
	got, _ := out.At(0, 1, 2)
	require.Equal(t, float64(2+1*3), got)
}

func TestSizeClassWrappers(t *testing.T) {
	ds, _ := fatesDataset(t)

	scpf, err := labeled.New(seq(4), labeled.Axis{Name: "fates_levscpf", Coords: labeled.IndexCoords(4)})
	require.NoError(t, err)
	out, err := SizeClassByPFT(ds, scpf)
	require.NoError(t, err)
	require.Equal(t, []string{"fates_levscls", "fates_levpft"}, out.Dims())
	got, _ := out.At(1, 1)
	require.Equal(t, 3.0, got)

	scag, err := labeled.New(seq(6), labeled.Axis{Name: "fates_levscag", Coords: labeled.IndexCoords(6)})
	require.NoError(t, err)
	out, err = SizeClassByAge(ds, scag)
	require.NoError(t, err)
	require.Equal(t, []string{"fates_levscls", "fates_levage"}, out.Dims())
	got, _ = out.At(1, 2)
	require.Equal(t, 5.0, got)

	// no fates_levfuel coordinates in the dataset
	agefuel, err := labeled.New(seq(6), labeled.Axis{Name: "fates_levagefuel", Coords: labeled.IndexCoords(6)})
	require.NoError(t, err)
	_, err = AgeByFuel(ds, agefuel)
	require.ErrorIs(t, err, ErrAxisNotFound)
}

func TestConventionErrors(t *testing.T) {
	ds, v := fatesDataset(t)

	_, err := AgeByPFT(ds, 42)
	require.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = AgeByPFT(nil, v)
	require.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = AgeByPFT(ds, "NOPE")
	require.ErrorIs(t, err, labeled.ErrVarNotFound)

	_, err = SizeClassByPFT(ds, v)
	require.ErrorIs(t, err, ErrAxisNotFound)

	ds.SetCoord("fates_levpft", []any{1, 2, 3})
	_, err = AgeByPFT(ds, v)
	require.ErrorIs(t, err, ErrIncompatibleSplit)
}
