package manifeststore_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odagate/odagate/internal/adapters/outbound/manifeststore"
	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

var now = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func sample() *manifest.Manifest {
	f := frame.MustNew(
		frame.Ints("year", 2023, 2024),
		frame.Ints("donor_code", 1, 1),
		frame.Floats("value_usd_constant", 100, 200),
	)
	m := manifest.Update(nil, "dec_2024", f, "value_usd_constant", []string{"year", "donor_code"}, now)
	m.Dataset = "financing_view"
	return m
}

func TestStore_SaveAndLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := manifeststore.New(fsys, "/data/manifests")

	require.NoError(t, store.Save(sample()))

	ok, err := afero.Exists(fsys, "/data/manifests/financing_view.json")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := store.Load("financing_view")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "financing_view", loaded.Dataset)
	assert.Equal(t, 2, loaded.Releases["dec_2024"].RowCount)
	assert.Equal(t, []string{"year", "donor_code"}, loaded.Schema.KeyColumns)
}

func TestStore_LoadNonExistent(t *testing.T) {
	store := manifeststore.New(afero.NewMemMapFs(), "/data/manifests")

	m, err := store.Load("financing_view")
	assert.NoError(t, err)
	assert.Nil(t, m)

	sm, err := store.LoadSeek()
	assert.NoError(t, err)
	assert.Nil(t, sm)
}

func TestStore_NaNSavedAsNull(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := manifeststore.New(fsys, "/m")

	m := sample()
	rel := m.Releases["dec_2024"]
	rel.Distribution.Median = manifest.Float(math.NaN())
	rel.Aggregates.ByDonor["2"] = manifest.Float(math.Inf(1))
	require.NoError(t, store.Save(m))

	raw, err := afero.ReadFile(fsys, "/m/financing_view.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"median": null`)
	assert.NotContains(t, string(raw), "NaN")

	loaded, err := store.Load("financing_view")
	require.NoError(t, err)
	lr := loaded.Releases["dec_2024"]
	assert.False(t, lr.Distribution.Median.Valid())
	assert.False(t, lr.Aggregates.ByDonor["2"].Valid())
	assert.Equal(t, manifest.Float(300), lr.Aggregates.ByDonor["1"])
	assert.Equal(t, rel.Distribution.Min, lr.Distribution.Min)
}

func TestStore_CorruptManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/m/financing_view.json", []byte(`{"dataset": "financing_view"}`), 0o644))
	store := manifeststore.New(fsys, "/m")

	_, err := store.Load("financing_view")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidManifest)
}

func TestStore_SeekRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := manifeststore.New(fsys, "/m")
	year := 2023
	m := (*manifest.SeekManifest)(nil).Put("dec_2024", &manifest.SeekRelease{
		ComputedAt:   now.Format(time.RFC3339Nano),
		LatestYear:   &year,
		ByDonorTotal: manifest.Totals{"1": 300},
	})
	require.NoError(t, store.SaveSeek(m))

	ok, err := afero.Exists(fsys, filepath.Join("/m", manifeststore.SeekFile))
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := store.LoadSeek()
	require.NoError(t, err)
	assert.Equal(t, manifest.SeekName, loaded.Dataset)
	assert.Equal(t, manifest.Float(300), loaded.Releases["dec_2024"].ByDonorTotal["1"])
}

func TestStore_List(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := manifeststore.New(fsys, "/m")

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save(sample()))
	other := sample()
	other.Dataset = "gender_view"
	require.NoError(t, store.Save(other))
	require.NoError(t, store.SaveSeek(manifest.NewSeek()))
	require.NoError(t, afero.WriteFile(fsys, "/m/notes.txt", []byte("x"), 0o644))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"financing_view", "gender_view"}, names)
}

func TestStore_SaveRequiresDataset(t *testing.T) {
	store := manifeststore.New(afero.NewMemMapFs(), "/m")
	assert.Error(t, store.Save(manifest.New("")))
}
