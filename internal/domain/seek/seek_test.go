package seek_test

import (
	"testing"
	"time"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
	"github.com/odagate/odagate/internal/domain/seek"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	names      = map[int64]string{1: "Austria", 2: "Belgium", 3: "Denmark"}
	thresholds = seek.ParamsFrom(domain.DefaultSeekConfig()).Thresholds
)

func TestFilterPurposeCodes(t *testing.T) {
	f := frame.MustNew(
		frame.Ints("purpose_code", 12110, 12220, 31110, 43040, 99999),
		frame.Floats("value", 100, 200, 300, 400, 500),
	)
	health := seek.FilterPurposeCodes(f, domain.DefaultSeekHealthCodes)
	assert.Equal(t, 2, health.Len())
	assert.Equal(t, 300.0, health.Sum("value"))

	ag := seek.FilterPurposeCodes(f, domain.DefaultSeekAgricultureCodes)
	assert.Equal(t, 2, ag.Len())
	assert.Equal(t, 700.0, ag.Sum("value"))

	none := seek.FilterPurposeCodes(frame.MustNew(frame.Floats("value", 1)), domain.DefaultSeekHealthCodes)
	assert.Equal(t, 0, none.Len())
}

func TestComputeAggregates_LatestYearOnly(t *testing.T) {
	f := frame.MustNew(
		frame.Ints("year", 2022, 2023, 2023, 2023, 2023),
		frame.Ints("donor_code", 1, 1, 1, 2, 2),
		frame.Ints("purpose_code", 12110, 12110, 31110, 12110, 43040),
		frame.Floats("value", 5000, 100, 200, 300, 400),
	)
	agg := seek.ComputeAggregates(f, domain.DefaultSeekHealthCodes, domain.DefaultSeekAgricultureCodes, "value")

	require.NotNil(t, agg.LatestYear)
	assert.Equal(t, 2023, *agg.LatestYear)
	assert.Equal(t, map[int64]float64{1: 300, 2: 700}, agg.ByDonorTotal)
	assert.Equal(t, map[int64]float64{1: 100, 2: 300}, agg.ByDonorHealth)
	assert.Equal(t, map[int64]float64{1: 200, 2: 400}, agg.ByDonorAgriculture)
}

func TestComputeAggregates_Empty(t *testing.T) {
	f := frame.MustNew(frame.Ints("year"), frame.Ints("donor_code"), frame.Floats("value"))
	agg := seek.ComputeAggregates(f, nil, nil, "value")
	assert.Nil(t, agg.LatestYear)
	assert.Empty(t, agg.ByDonorTotal)
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := frame.MustNew(
		frame.Ints("year", 2023, 2023),
		frame.Ints("donor_code", 1, 2),
		frame.Ints("purpose_code", 12110, 31110),
		frame.Floats("value", 100, 200),
	)
	agg := seek.ComputeAggregates(f, domain.DefaultSeekHealthCodes, domain.DefaultSeekAgricultureCodes, "value")
	m := (*manifest.SeekManifest)(nil).Put("dec_2024", agg.Snapshot(time.Now()))

	rel := m.Releases["dec_2024"]
	assert.Equal(t, manifest.SeekName, m.Dataset)
	assert.Equal(t, 2023, *rel.LatestYear)
	assert.Contains(t, rel.ByDonorTotal, "1")
	assert.Contains(t, rel.ByDonorHealth, "1")
	assert.Contains(t, rel.ByDonorAgriculture, "2")

	back := seek.FromSnapshot(rel)
	assert.Equal(t, agg.ByDonorTotal, back.ByDonorTotal)
}

func TestDonorDrift_NoDrift(t *testing.T) {
	cur := map[int64]float64{1: 100, 2: 200, 3: 300}
	assert.Empty(t, seek.DonorDrift(cur, cur, seek.SectorTotal, names, thresholds))
}

func TestDonorDrift_BelgiumDoubled(t *testing.T) {
	cur := map[int64]float64{1: 100, 2: 400, 3: 300}
	prev := map[int64]float64{1: 100, 2: 200, 3: 300}

	ws := seek.DonorDrift(cur, prev, seek.SectorHealth, names, thresholds)
	require.Len(t, ws, 1)
	assert.Equal(t, domain.LevelHigh, ws[0].Level)
	assert.Equal(t, domain.SeekDataset, ws[0].Dataset)
	assert.Equal(t, "SEEK health: Belgium changed +100.0% (z=1.4, typical: +33.3% ± 47.1%)", ws[0].Message)
}

func TestDonorDrift_ZScoreAloneFlags(t *testing.T) {
	cur := map[int64]float64{}
	prev := map[int64]float64{}
	for d := int64(1); d <= 17; d++ {
		prev[d] = 1000
		cur[d] = 1000
	}
	cur[17] = 1150

	ws := seek.DonorDrift(cur, prev, seek.SectorTotal, nil, thresholds)
	require.Len(t, ws, 1)
	assert.Equal(t, domain.LevelHigh, ws[0].Level, "z=4.0 exceeds the high bound")
	assert.Contains(t, ws[0].Message, "Donor 17 changed +15.0% (z=4.0")
}

func TestDonorDrift_EmptyPrevious(t *testing.T) {
	assert.Empty(t, seek.DonorDrift(map[int64]float64{1: 100}, nil, seek.SectorTotal, names, thresholds))
}

func TestDonorDrift_PercentFallbackForSingleDonor(t *testing.T) {
	ws := seek.DonorDrift(map[int64]float64{1: 200}, map[int64]float64{1: 100}, seek.SectorAgriculture, names, thresholds)
	require.Len(t, ws, 1)
	assert.Equal(t, "SEEK agriculture: Austria changed +100.0% vs previous release", ws[0].Message)
}

func TestDonorDrift_OnlyPositivePriorCompared(t *testing.T) {
	cur := map[int64]float64{1: 130, 2: 50, 3: 10}
	prev := map[int64]float64{1: 100, 2: 0}
	ws := seek.DonorDrift(cur, prev, seek.SectorTotal, names, thresholds)
	require.Len(t, ws, 1)
	assert.Equal(t, domain.LevelMedium, ws[0].Level)
}

func TestMissingDonors(t *testing.T) {
	prev := map[int64]float64{1: 100, 2: 2500}
	ws := seek.MissingDonors(map[int64]float64{1: 100}, prev, seek.SectorHealth, names, []int{1, 2})
	require.Len(t, ws, 1)
	assert.Equal(t, domain.LevelHigh, ws[0].Level)
	assert.Equal(t, "SEEK health: Belgium has no data (had 2,500 in previous release)", ws[0].Message)

	assert.Empty(t, seek.MissingDonors(map[int64]float64{1: 100}, prev, seek.SectorTotal, names, []int{1}))
}

func TestNewDonors(t *testing.T) {
	ws := seek.NewDonors(map[int64]float64{1: 1, 2: 1, 3: 1}, map[int64]float64{1: 1, 2: 1}, seek.SectorTotal, names)
	require.Len(t, ws, 1)
	assert.Equal(t, domain.LevelInfo, ws[0].Level)
	assert.Equal(t, "SEEK total: New donors in this release: Denmark", ws[0].Message)

	assert.Empty(t, seek.NewDonors(map[int64]float64{1: 1}, map[int64]float64{1: 1}, seek.SectorTotal, names))
}

func TestNewDonors_Summarised(t *testing.T) {
	cur := map[int64]float64{}
	for d := int64(10); d < 17; d++ {
		cur[d] = 1
	}
	ws := seek.NewDonors(cur, map[int64]float64{}, seek.SectorTotal, nil)
	require.Len(t, ws, 1)
	assert.Equal(t, "SEEK total: New donors in this release: 10, 11, 12, 13, 14 and 2 others", ws[0].Message)
}

func TestRun(t *testing.T) {
	f := frame.MustNew(
		frame.Ints("year", 2023, 2023, 2023, 2023),
		frame.Ints("donor_code", 1, 1, 2, 2),
		frame.Strings("donor_name", "Austria", "Austria", "Belgium", "Belgium"),
		frame.Ints("purpose_code", 12110, 31110, 12110, 43040),
		frame.Floats("value", 100, 200, 600, 400),
	)
	prev := seek.FromSnapshot(&manifest.SeekRelease{
		ByDonorTotal:       manifest.Totals{"1": 300, "2": 500, "4": 50},
		ByDonorHealth:      manifest.Totals{"1": 100, "2": 300},
		ByDonorAgriculture: manifest.Totals{"1": 200, "2": 200},
	})
	p := seek.ParamsFrom(domain.SeekConfig{CriticalDonors: []int{4}})

	ws := seek.Run(f, prev, f.FirstStringByInt("donor_code", "donor_name"), p)

	var msgs []string
	for _, w := range ws {
		msgs = append(msgs, w.Message)
		assert.Equal(t, domain.SeekDataset, w.Dataset)
	}
	assert.Contains(t, msgs, "SEEK total: Belgium changed +100.0% (z=1.0, typical: +50.0% ± 50.0%)")
	assert.Contains(t, msgs, "SEEK agriculture: Belgium changed +100.0% (z=1.0, typical: +50.0% ± 50.0%)")
	assert.Contains(t, msgs, "SEEK total: Donor 4 has no data (had 50 in previous release)")
}

func TestParamsFrom_Defaults(t *testing.T) {
	p := seek.ParamsFrom(domain.SeekConfig{})
	assert.Equal(t, "value", p.ValueColumn)
	assert.Equal(t, domain.MajorDonors, p.CriticalDonors)
	assert.Equal(t, seek.Thresholds{Z: 2, ZHigh: 3, Pct: 0.2, PctHigh: 0.4}, p.Thresholds)
}
