// Package seek validates purpose-code level sector data by comparing
// latest-year donor totals for all sectors, health and agriculture against
// the previous release.
package seek

import (
	"sort"
	"strconv"
	"time"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

// Sector labels used in messages.
const (
	SectorTotal       = "total"
	SectorHealth      = "health"
	SectorAgriculture = "agriculture"
)

// Aggregates are the latest-year donor totals of one release.
type Aggregates struct {
	LatestYear         *int
	ByDonorTotal       map[int64]float64
	ByDonorHealth      map[int64]float64
	ByDonorAgriculture map[int64]float64
}

// ComputeAggregates restricts f to its latest year and totals valueColumn by
// donor: across all purposes, and for the health and agriculture purpose
// code subsets.
func ComputeAggregates(f *frame.Frame, healthCodes, agricultureCodes []int, valueColumn string) Aggregates {
	latestDF := f
	var latestYear *int
	if y, ok := f.MaxInt("year"); ok {
		yc := f.Col("year")
		latestDF = f.Filter(func(i int) bool { return !yc.IsNull(i) && yc.Int(i) == y })
		year := int(y)
		latestYear = &year
	} else if f.Has("year") {
		latestDF = f.Take(nil)
	}

	return Aggregates{
		LatestYear:         latestYear,
		ByDonorTotal:       latestDF.SumByInt("donor_code", valueColumn),
		ByDonorHealth:      FilterPurposeCodes(latestDF, healthCodes).SumByInt("donor_code", valueColumn),
		ByDonorAgriculture: FilterPurposeCodes(latestDF, agricultureCodes).SumByInt("donor_code", valueColumn),
	}
}

// FilterPurposeCodes keeps rows whose purpose_code is in codes. A frame
// without purpose_code yields no rows.
func FilterPurposeCodes(f *frame.Frame, codes []int) *frame.Frame {
	pc := f.Col("purpose_code")
	if pc == nil {
		return f.Take(nil)
	}
	set := make(map[int64]bool, len(codes))
	for _, c := range codes {
		set[int64(c)] = true
	}
	return f.Filter(func(i int) bool { return !pc.IsNull(i) && set[pc.Int(i)] })
}

// Snapshot converts the aggregates into a manifest record.
func (a Aggregates) Snapshot(now time.Time) *manifest.SeekRelease {
	return &manifest.SeekRelease{
		ComputedAt:         now.Format(time.RFC3339Nano),
		LatestYear:         a.LatestYear,
		ByDonorTotal:       toTotals(a.ByDonorTotal),
		ByDonorHealth:      toTotals(a.ByDonorHealth),
		ByDonorAgriculture: toTotals(a.ByDonorAgriculture),
	}
}

// FromSnapshot reads the donor totals back from a manifest record.
func FromSnapshot(r *manifest.SeekRelease) Aggregates {
	if r == nil {
		return Aggregates{}
	}
	return Aggregates{
		LatestYear:         r.LatestYear,
		ByDonorTotal:       r.ByDonorTotal.ByInt(),
		ByDonorHealth:      r.ByDonorHealth.ByInt(),
		ByDonorAgriculture: r.ByDonorAgriculture.ByInt(),
	}
}

func toTotals(m map[int64]float64) manifest.Totals {
	out := make(manifest.Totals, len(m))
	for k, v := range m {
		out[strconv.FormatInt(k, 10)] = manifest.Float(v)
	}
	return out
}

func sortedDonors(m map[int64]float64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func warning(level domain.Level, msg string) domain.Warning {
	return domain.Warning{Level: level, Dataset: domain.SeekDataset, Message: msg}
}
