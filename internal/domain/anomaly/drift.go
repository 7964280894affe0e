package anomaly

import (
	"math"
	"sort"

	"github.com/odagate/odagate/internal/domain"
	"github.com/odagate/odagate/internal/domain/frame"
	"github.com/odagate/odagate/internal/domain/manifest"
)

// ReleaseDrift compares current donor totals with the previous release's
// by_donor aggregate. Donors absent from the previous snapshot are left to
// the code and missing-data detectors.
func ReleaseDrift(f *frame.Frame, prev *manifest.Release, label, valueColumn string) []domain.Warning {
	if prev == nil || prev.Aggregates.ByDonor == nil || !f.Has("donor_code") {
		return nil
	}
	current := f.SumByInt("donor_code", valueColumn)
	names := DonorNames(f)
	previous := prev.Aggregates.ByDonor.ByInt()

	var out []domain.Warning
	for _, donor := range sortedInt64Keys(previous) {
		change, ok := pctChange(current[donor], previous[donor])
		if !ok {
			continue
		}
		level, flagged := levelFor(change, DriftThreshold, DriftHigh)
		if !flagged {
			continue
		}
		name, ok := names[donor]
		if !ok || name == "" {
			name = formatCode(donor)
		}
		out = append(out, warn(level, "%s: %s vs %s", name, domain.SignedPct(change), label))
	}
	return out
}

// MissingExpectedData flags critical donors that stopped reporting in the
// latest year, or whose latest-year rows sum to zero.
func MissingExpectedData(f *frame.Frame, donors []NamedDonor, valueColumn string) []domain.Warning {
	latest, ok := f.MaxInt("year")
	if !ok || !f.Has("donor_code") {
		return nil
	}
	dc, yc, vc := f.Col("donor_code"), f.Col("year"), f.Col(valueColumn)

	type tally struct {
		latestRows, priorRows int
		latestSum             float64
	}
	byDonor := make(map[int64]*tally)
	for i := 0; i < f.Len(); i++ {
		if dc.IsNull(i) || yc.IsNull(i) {
			continue
		}
		y := yc.Int(i)
		if y != latest && y != latest-1 {
			continue
		}
		t := byDonor[dc.Int(i)]
		if t == nil {
			t = &tally{}
			byDonor[dc.Int(i)] = t
		}
		if y == latest-1 {
			t.priorRows++
			continue
		}
		t.latestRows++
		if vc != nil {
			if v := vc.Float(i); !math.IsNaN(v) {
				t.latestSum += v
			}
		}
	}

	var out []domain.Warning
	for _, d := range donors {
		t := byDonor[d.Code]
		if t == nil {
			continue
		}
		if t.priorRows > 0 && t.latestRows == 0 {
			out = append(out, warn(domain.LevelHigh, "%s: No data for %d (had data in %d)", d.Name, latest, latest-1))
			continue
		}
		if t.latestRows > 0 && t.latestSum == 0 {
			out = append(out, warn(domain.LevelHigh, "%s: All zeros for %d", d.Name, latest))
		}
	}
	return out
}

// RowCountChange flags a relative change in row count above threshold. The
// warning carries dataset directly.
func RowCountChange(current, previous int, dataset string, threshold float64) []domain.Warning {
	change, ok := pctChange(float64(current), float64(previous))
	if !ok {
		return nil
	}
	level, flagged := levelFor(change, threshold, RowCountHigh)
	if !flagged {
		return nil
	}
	w := warn(level, "Row count: %s -> %s (%s)", domain.Count(previous), domain.Count(current), domain.SignedPct(change))
	w.Dataset = dataset
	return []domain.Warning{w}
}

// IndicatorCoverageGaps flags indicators of the previous release that are
// now missing or all zeros.
func IndicatorCoverageGaps(f *frame.Frame, prev *manifest.Release, valueColumn string) []domain.Warning {
	if prev == nil || !f.Has("indicator") {
		return nil
	}
	ic := f.Col("indicator")
	rows := make(map[string]int)
	for i := 0; i < f.Len(); i++ {
		if !ic.IsNull(i) {
			rows[ic.String(i)]++
		}
	}
	sums := f.SumBy("indicator", valueColumn)

	indicators := append([]string(nil), prev.IndicatorsPresent...)
	sort.Strings(indicators)

	var out []domain.Warning
	for _, ind := range indicators {
		switch {
		case rows[ind] == 0:
			out = append(out, warn(domain.LevelHigh, "Indicator '%s' has no data (was present in previous release)", ind))
		case sums[ind] == 0:
			out = append(out, warn(domain.LevelMedium, "Indicator '%s' is all zeros", ind))
		}
	}
	return out
}

// AgencyDrift compares multilateral agency totals with the previous release.
func AgencyDrift(f *frame.Frame, prev *manifest.Release, valueColumn string) []domain.Warning {
	if prev == nil || !f.Has("agency_code") {
		return nil
	}
	current := f.SumByInt("agency_code", valueColumn)
	previous := prev.Aggregates.ByAgency.ByInt()

	var out []domain.Warning
	for _, agency := range sortedInt64Keys(previous) {
		change, ok := pctChange(current[agency], previous[agency])
		if !ok {
			continue
		}
		if level, flagged := levelFor(change, DriftThreshold, DriftHigh); flagged {
			out = append(out, warn(level, "Agency %d: %s vs previous release", agency, domain.SignedPct(change)))
		}
	}
	return out
}

// SectorDrift compares sector totals, then (donor, sector) cells, with the
// previous release. The per-cell pass catches single-donor problems that
// sector totals mask.
func SectorDrift(f *frame.Frame, prev *manifest.Release, valueColumn string, donorNames map[int64]string) []domain.Warning {
	if prev == nil || !f.Has("sector_name") {
		return nil
	}

	var out []domain.Warning
	current := f.SumBy("sector_name", valueColumn)
	for _, sector := range prev.Aggregates.BySector.Keys() {
		change, ok := pctChange(current[sector], float64(prev.Aggregates.BySector[sector]))
		if !ok {
			continue
		}
		if level, flagged := levelFor(change, DriftThreshold, DriftHigh); flagged {
			out = append(out, warn(level, "Sector '%s': %s vs previous release", sector, domain.SignedPct(change)))
		}
	}

	if !f.Has("donor_code") {
		return out
	}
	cells := manifest.SumByDonorSector(f, valueColumn)
	keys := make([]manifest.DonorSector, 0, len(prev.Aggregates.ByDonorSector))
	for k := range prev.Aggregates.ByDonorSector {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Donor != keys[j].Donor {
			return keys[i].Donor < keys[j].Donor
		}
		return keys[i].Sector < keys[j].Sector
	})
	for _, cell := range keys {
		change, ok := pctChange(cells[cell], float64(prev.Aggregates.ByDonorSector[cell]))
		if !ok {
			continue
		}
		if level, flagged := levelFor(change, DonorSectorThreshold, DonorSectorHigh); flagged {
			out = append(out, warn(level, "%s - %s: %s vs previous release",
				donorLabel(cell.Donor, donorNames), cell.Sector, domain.SignedPct(change)))
		}
	}
	return out
}
