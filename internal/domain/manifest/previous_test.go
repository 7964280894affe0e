package manifest_test

import (
	"testing"

	"github.com/odagate/odagate/internal/domain/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrevious_PrefersLaterTimestampOverName(t *testing.T) {
	releases := map[string]*manifest.SeekRelease{
		"z_release": {ComputedAt: "2025-01-01T00:00:00"},
		"a_release": {ComputedAt: "2025-04-01T12:30:00.123456"},
	}
	name, rel, ok := manifest.Previous(releases, "current")
	require.True(t, ok)
	assert.Equal(t, "a_release", name)
	assert.Same(t, releases["a_release"], rel)
}

func TestPrevious_ExcludesCurrent(t *testing.T) {
	releases := map[string]*manifest.Release{
		"2025-04": {ComputedAt: "2025-04-17T10:00:00Z"},
		"2025-03": {ComputedAt: "2025-03-17T10:00:00Z"},
	}
	name, _, ok := manifest.Previous(releases, "2025-04")
	require.True(t, ok)
	assert.Equal(t, "2025-03", name)
}

func TestPrevious_LegacyNamesAfterTimestamped(t *testing.T) {
	releases := map[string]*manifest.Release{
		"zzz_legacy": {},
		"stamped":    {ComputedAt: "2024-01-01T00:00:00Z"},
	}
	assert.Equal(t, []string{"stamped", "zzz_legacy"}, manifest.Ordered(releases))
}

func TestPrevious_LegacyNamesDescending(t *testing.T) {
	releases := map[string]*manifest.Release{"dec_2023": {}, "jun_2024": {}, "feb_2024": {}}
	name, _, ok := manifest.Previous(releases, "x")
	require.True(t, ok)
	assert.Equal(t, "jun_2024", name)
}

func TestPrevious_NoOtherRelease(t *testing.T) {
	_, _, ok := manifest.Previous(map[string]*manifest.Release{"only": {}}, "only")
	assert.False(t, ok)

	var m *manifest.Manifest
	_, _, ok = m.Previous("x")
	assert.False(t, ok)
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2025-04-17T10:23:45.123456",
		"2025-04-17T10:23:45",
		"2025-04-17T10:23:45+02:00",
		"2025-04-17",
	} {
		_, ok := manifest.ParseTimestamp(s)
		assert.True(t, ok, s)
	}
	_, ok := manifest.ParseTimestamp("april")
	assert.False(t, ok)
}

func TestSeekManifest_PutAndDecode(t *testing.T) {
	year := 2023
	m := (*manifest.SeekManifest)(nil).Put("2025-04", &manifest.SeekRelease{
		ComputedAt:   "2025-04-17T10:00:00Z",
		LatestYear:   &year,
		ByDonorTotal: manifest.Totals{"4": 1000},
	})
	data, err := manifest.Encode(m)
	require.NoError(t, err)

	got, err := manifest.DecodeSeek(data)
	require.NoError(t, err)
	assert.Equal(t, manifest.SeekName, got.Dataset)
	assert.Equal(t, 2023, *got.Releases["2025-04"].LatestYear)

	_, err = manifest.DecodeSeek([]byte(`{"releases": {"a": {"latest_year": 2023}}}`))
	assert.ErrorIs(t, err, manifest.ErrInvalid)
}
